package builtin

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type operands struct {
	A float64 `json:"a" jsonschema:"the first operand"`
	B float64 `json:"b" jsonschema:"the second operand"`
}

type calcResult struct {
	Result float64 `json:"result"`
}

func NewCalcServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: Calc, Version: serverVersion}, &mcp.ServerOptions{
		Instructions: "Basic arithmetic on two numbers.",
		HasTools:     true,
	})
	addArithmetic(server, "add", "Add two numbers and return the sum.", func(a, b float64) (float64, error) {
		return a + b, nil
	})
	addArithmetic(server, "subtract", "Subtract the second number from the first and return the difference.", func(a, b float64) (float64, error) {
		return a - b, nil
	})
	addArithmetic(server, "multiply", "Multiply two numbers and return the product.", func(a, b float64) (float64, error) {
		return a * b, nil
	})
	addArithmetic(server, "divide", "Divide the first number by the second and return the quotient. Fails when the divisor is zero.", func(a, b float64) (float64, error) {
		if b == 0 {
			return 0, errors.New("division by zero")
		}
		return a / b, nil
	})
	return server
}

func addArithmetic(server *mcp.Server, name, description string, op func(a, b float64) (float64, error)) {
	mcp.AddTool(server, &mcp.Tool{Name: name, Description: description},
		func(_ context.Context, _ *mcp.CallToolRequest, in operands) (*mcp.CallToolResult, calcResult, error) {
			value, err := op(in.A, in.B)
			if err != nil {
				return nil, calcResult{}, err
			}
			return nil, calcResult{Result: value}, nil
		})
}
