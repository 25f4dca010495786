// Package remote exposes gRPC services as expression call targets. A dialed
// Service is bound to a context variable; method calls on it become unary
// RPCs described by a .proto file, with no generated code involved.
package remote

import (
	"context"
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/funvibe/exprel/internal/config"
)

// Service is a dialed gRPC service whose methods are invoked dynamically.
// It satisfies the dispatch Dynamic interface, so resolution is optimistic
// and the call sites never compile to bytecode.
type Service struct {
	conn *grpc.ClientConn
	desc *desc.ServiceDescriptor
}

// Dial connects to the configured service and parses its proto descriptor.
// The connection is lazy; a bad address surfaces on the first call, not here.
func Dial(cfg config.ServiceConfig) (*Service, error) {
	imports := cfg.Imports
	if len(imports) == 0 {
		imports = []string{"."}
	}
	parser := protoparse.Parser{ImportPaths: imports}
	fds, err := parser.ParseFiles(cfg.Proto)
	if err != nil {
		return nil, fmt.Errorf("failed to parse proto %s: %w", cfg.Proto, err)
	}

	var sd *desc.ServiceDescriptor
	for _, fd := range fds {
		if found := fd.FindService(cfg.Service); found != nil {
			sd = found
			break
		}
	}
	if sd == nil {
		return nil, fmt.Errorf("service %q not found in %s", cfg.Service, cfg.Proto)
	}

	conn, err := grpc.NewClient(cfg.Address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", cfg.Address, err)
	}

	return &Service{conn: conn, desc: sd}, nil
}

// Close releases the underlying connection.
func (s *Service) Close() error {
	return s.conn.Close()
}

// Name returns the fully qualified service name.
func (s *Service) Name() string {
	return s.desc.GetFullyQualifiedName()
}

// CallMethod performs a unary RPC. The request message is built from the
// arguments: none for an empty request, a single map for field-by-name
// population, or a single scalar when the request message has exactly one
// field. The response comes back as a map keyed by field name.
func (s *Service) CallMethod(name string, args []any) (any, error) {
	md := s.desc.FindMethodByName(name)
	if md == nil {
		return nil, fmt.Errorf("service %s has no method %q", s.Name(), name)
	}
	if md.IsClientStreaming() || md.IsServerStreaming() {
		return nil, fmt.Errorf("method %s/%s is streaming; only unary calls are supported", s.Name(), name)
	}

	reqMsg := dynamic.NewMessage(md.GetInputType())
	if err := populateRequest(reqMsg, args); err != nil {
		return nil, fmt.Errorf("building request for %s: %w", name, err)
	}
	respMsg := dynamic.NewMessage(md.GetOutputType())

	methodPath := fmt.Sprintf("/%s/%s", s.Name(), name)
	if err := s.conn.Invoke(context.Background(), methodPath, reqMsg, respMsg); err != nil {
		return nil, fmt.Errorf("RPC %s failed: %w", methodPath, err)
	}

	return messageToMap(respMsg), nil
}

func populateRequest(msg *dynamic.Message, args []any) error {
	switch len(args) {
	case 0:
		return nil
	case 1:
		if fields, ok := args[0].(map[string]any); ok {
			return mapToMessage(fields, msg)
		}
		// A scalar argument fills a single-field request.
		descFields := msg.GetMessageDescriptor().GetFields()
		if len(descFields) != 1 {
			return fmt.Errorf("expected a map argument for a %d-field request", len(descFields))
		}
		v, err := toProtoValue(args[0], descFields[0])
		if err != nil {
			return err
		}
		if v != nil {
			msg.SetField(descFields[0], v)
		}
		return nil
	default:
		return fmt.Errorf("expected at most 1 argument, got %d", len(args))
	}
}
