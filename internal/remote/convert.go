package remote

import (
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/protobuf/types/descriptorpb"
)

// mapToMessage populates a dynamic message from a map keyed by proto field
// name. Unknown keys are ignored so callers can reuse larger maps.
func mapToMessage(fields map[string]any, msg *dynamic.Message) error {
	for name, val := range fields {
		fd := msg.GetMessageDescriptor().FindFieldByName(name)
		if fd == nil {
			continue
		}
		v, err := toProtoValue(val, fd)
		if err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		if v != nil {
			msg.SetField(fd, v)
		}
	}
	return nil
}

func toProtoValue(val any, fd *desc.FieldDescriptor) (any, error) {
	if val == nil {
		return nil, nil
	}

	if fd.IsRepeated() {
		items, ok := val.([]any)
		if !ok {
			return nil, fmt.Errorf("expected a slice for repeated field")
		}
		slice := make([]any, 0, len(items))
		for _, item := range items {
			v, err := toProtoSingleValue(item, fd)
			if err != nil {
				return nil, err
			}
			slice = append(slice, v)
		}
		return slice, nil
	}

	return toProtoSingleValue(val, fd)
}

func toProtoSingleValue(val any, fd *desc.FieldDescriptor) (any, error) {
	switch fd.GetType() {
	case descriptorpb.FieldDescriptorProto_TYPE_INT32, descriptorpb.FieldDescriptorProto_TYPE_SINT32, descriptorpb.FieldDescriptorProto_TYPE_SFIXED32:
		if i, ok := asInt64(val); ok {
			return int32(i), nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_INT64, descriptorpb.FieldDescriptorProto_TYPE_SINT64, descriptorpb.FieldDescriptorProto_TYPE_SFIXED64:
		if i, ok := asInt64(val); ok {
			return i, nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_UINT32, descriptorpb.FieldDescriptorProto_TYPE_FIXED32:
		if i, ok := asInt64(val); ok {
			return uint32(i), nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_UINT64, descriptorpb.FieldDescriptorProto_TYPE_FIXED64:
		if i, ok := asInt64(val); ok {
			return uint64(i), nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_FLOAT:
		if f, ok := asFloat64(val); ok {
			return float32(f), nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_DOUBLE:
		if f, ok := asFloat64(val); ok {
			return f, nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_BOOL:
		if b, ok := val.(bool); ok {
			return b, nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_STRING:
		if s, ok := val.(string); ok {
			return s, nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_BYTES:
		if b, ok := val.([]byte); ok {
			return b, nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_MESSAGE:
		fields, ok := val.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected a map for message field")
		}
		nested := dynamic.NewMessage(fd.GetMessageType())
		if err := mapToMessage(fields, nested); err != nil {
			return nil, err
		}
		return nested, nil
	case descriptorpb.FieldDescriptorProto_TYPE_ENUM:
		if i, ok := asInt64(val); ok {
			return int32(i), nil
		}
		if s, ok := val.(string); ok {
			if ev := fd.GetEnumType().FindValueByName(s); ev != nil {
				return ev.GetNumber(), nil
			}
			return nil, fmt.Errorf("unknown enum value %q", s)
		}
	}
	return nil, fmt.Errorf("cannot convert %T to proto type %v", val, fd.GetType())
}

func asInt64(val any) (int64, bool) {
	switch v := val.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	}
	return 0, false
}

func asFloat64(val any) (float64, bool) {
	switch v := val.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// messageToMap converts a dynamic message into a map keyed by field name.
// Nested messages become nested maps; repeated fields become slices.
func messageToMap(msg *dynamic.Message) map[string]any {
	fields := make(map[string]any)
	for _, fd := range msg.GetMessageDescriptor().GetFields() {
		fields[fd.GetName()] = fromProtoValue(msg.GetField(fd), fd)
	}
	return fields
}

func fromProtoValue(val any, fd *desc.FieldDescriptor) any {
	if val == nil {
		return nil
	}

	if fd.IsRepeated() {
		slice, ok := val.([]any)
		if !ok {
			return []any{}
		}
		items := make([]any, 0, len(slice))
		for _, v := range slice {
			items = append(items, fromProtoSingleValue(v))
		}
		return items
	}

	return fromProtoSingleValue(val)
}

func fromProtoSingleValue(val any) any {
	switch v := val.(type) {
	case int32:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		// Overflows past MaxInt64 wrap; expression arithmetic is int64.
		return int64(v)
	case float32:
		return float64(v)
	case *dynamic.Message:
		return messageToMap(v)
	case int:
		return int64(v)
	}
	return val
}
