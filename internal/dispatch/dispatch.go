// Package dispatch turns tool invocations into GraphQL operations:
// argument validation, operation assembly, bounded execution against the
// origin and a single retry for idempotent operations.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"gqlbridge/internal/fault"
	"gqlbridge/internal/graphql"
	"gqlbridge/internal/registry"
)

const defaultTimeout = 15 * time.Second

// Observation is what one tool invocation produced: the origin's data and
// GraphQL errors verbatim, plus invocation metadata.
type Observation struct {
	Data    json.RawMessage
	Errors  []graphql.ResponseError
	Latency time.Duration
	Retried bool
}

type Dispatcher struct {
	client  *graphql.Client
	timeout time.Duration
	log     *slog.Logger
}

func New(client *graphql.Client, timeout time.Duration, log *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{client: client, timeout: timeout, log: log}
}

// Invoke executes the named data tool with the given arguments. Unknown
// names and undeclared, missing or miscoerced arguments fail before
// anything reaches the origin.
func (d *Dispatcher) Invoke(ctx context.Context, reg *registry.Registry, name string, args map[string]any) (*Observation, error) {
	desc, ok := reg.Resolve(name)
	if !ok {
		return nil, fault.New(fault.UnknownTool, "unknown tool %q", name)
	}
	if desc.Kind != registry.KindData {
		return nil, fault.New(fault.UnknownTool, "tool %q does not execute data operations", name)
	}
	if err := validateArgs(desc.Field, args); err != nil {
		return nil, err
	}
	query, variables := buildOperation(desc, args)
	obs, err := d.execute(ctx, query, variables, desc.Mutation)
	if err != nil {
		return nil, err
	}
	d.log.Debug("tool dispatched",
		"tool", name,
		"latency", obs.Latency,
		"retried", obs.Retried,
		"graphql_errors", len(obs.Errors))
	return obs, nil
}

// Execute runs a caller-supplied operation string, the escape hatch of
// the fullschema and agentic strategies. The operation kind decides
// retry eligibility.
func (d *Dispatcher) Execute(ctx context.Context, query string, variables map[string]any) (*Observation, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fault.New(fault.InvalidArguments, "query must not be empty")
	}
	mutation := strings.HasPrefix(strings.TrimSpace(query), "mutation")
	return d.execute(ctx, query, variables, mutation)
}

// execute runs the operation with a per-attempt timeout. Transport
// failures of non-mutations are retried exactly once; mutations never
// are, since the first attempt may have landed.
func (d *Dispatcher) execute(ctx context.Context, query string, variables map[string]any, mutation bool) (*Observation, error) {
	start := time.Now()
	resp, err := d.attempt(ctx, query, variables)
	retried := false
	if err != nil && !mutation && ctx.Err() == nil {
		retried = true
		resp, err = d.attempt(ctx, query, variables)
	}
	if err != nil {
		return nil, fault.Wrap(fault.OriginUnavailable, err, "origin endpoint did not answer")
	}
	return &Observation{
		Data:    resp.Data,
		Errors:  resp.Errors,
		Latency: time.Since(start),
		Retried: retried,
	}, nil
}

func (d *Dispatcher) attempt(ctx context.Context, query string, variables map[string]any) (*graphql.Response, error) {
	actx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.client.Execute(actx, query, variables)
}

// buildOperation assembles the wrapped operation. Only provided arguments
// become variables; the selection set was already restricted to revealed
// fields when the descriptor was built.
func buildOperation(desc *registry.Descriptor, args map[string]any) (string, map[string]any) {
	op := "query"
	if desc.Mutation {
		op = "mutation"
	}

	provided := make([]string, 0, len(args))
	for name := range args {
		provided = append(provided, name)
	}
	sort.Strings(provided)

	var varDefs, fieldArgs []string
	variables := make(map[string]any, len(provided))
	for _, name := range provided {
		for i := range desc.Field.Args {
			a := &desc.Field.Args[i]
			if a.Name != name {
				continue
			}
			varDefs = append(varDefs, fmt.Sprintf("$%s: %s", name, a.Type.String()))
			fieldArgs = append(fieldArgs, fmt.Sprintf("%s: $%s", name, name))
			variables[name] = args[name]
		}
	}

	var b strings.Builder
	b.WriteString(op)
	if len(varDefs) > 0 {
		b.WriteString(" (" + strings.Join(varDefs, ", ") + ")")
	}
	b.WriteString(" { " + desc.Field.Name)
	if len(fieldArgs) > 0 {
		b.WriteString("(" + strings.Join(fieldArgs, ", ") + ")")
	}
	if desc.Selection != "" {
		b.WriteString(" " + desc.Selection)
	}
	b.WriteString(" }")
	return b.String(), variables
}

// validateArgs rejects undeclared arguments, missing required arguments
// and values that cannot coerce to the declared scalar type.
func validateArgs(field *graphql.FieldNode, args map[string]any) error {
	declared := make(map[string]*graphql.ArgumentNode, len(field.Args))
	for i := range field.Args {
		declared[field.Args[i].Name] = &field.Args[i]
	}
	for name := range args {
		if _, ok := declared[name]; !ok {
			return fault.New(fault.InvalidArguments, "field %s declares no argument %q", field.Name, name)
		}
	}
	for _, a := range declared {
		val, present := args[a.Name]
		if !present {
			if a.Required {
				return fault.New(fault.InvalidArguments, "missing required argument %q", a.Name)
			}
			continue
		}
		if err := coercible(&a.Type, val); err != nil {
			return fault.Wrap(fault.InvalidArguments, err, "argument %q", a.Name)
		}
	}
	return nil
}

func coercible(ref *graphql.TypeRef, val any) error {
	switch ref.Kind {
	case graphql.KindNonNull:
		if val == nil {
			return fmt.Errorf("must not be null")
		}
		return coercible(ref.OfType, val)
	case graphql.KindList:
		if val == nil {
			return nil
		}
		items, ok := val.([]any)
		if !ok {
			return fmt.Errorf("expected a list")
		}
		for i, item := range items {
			if err := coercible(ref.OfType, item); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		return nil
	}
	if val == nil {
		return nil
	}

	switch ref.Name {
	case "Int":
		switch v := val.(type) {
		case float64:
			if v != float64(int64(v)) {
				return fmt.Errorf("expected an integer, got %v", v)
			}
		case int, int32, int64, json.Number:
		default:
			return fmt.Errorf("expected an integer, got %T", val)
		}
	case "Float":
		switch val.(type) {
		case float64, float32, int, int64, json.Number:
		default:
			return fmt.Errorf("expected a number, got %T", val)
		}
	case "Boolean":
		if _, ok := val.(bool); !ok {
			return fmt.Errorf("expected a boolean, got %T", val)
		}
	case "String", "ID":
		if _, ok := val.(string); !ok {
			return fmt.Errorf("expected a string, got %T", val)
		}
	default:
		// Enums arrive as strings; input objects as maps. Custom scalars
		// pass through and let the origin judge.
		switch val.(type) {
		case string, map[string]any, float64, bool:
		default:
			return fmt.Errorf("unsupported value of type %T", val)
		}
	}
	return nil
}
