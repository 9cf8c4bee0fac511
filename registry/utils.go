package registry

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	protoparser "github.com/yoheimuta/go-protoparser/v4"
	protoparserparser "github.com/yoheimuta/go-protoparser/v4/parser"

	"github.com/givelotus/chronik-go/schema"
)

// pendingField is a message or enum typed field whose type name still has
// to be resolved against the symbol table.
type pendingField struct {
	field    *schema.Field
	typeName string // as written in the .proto file
	scope    string // fully qualified name of the enclosing message
}

// parseProto parses .proto text, stores the resulting file and registers its
// top level and nested names. Field type references are returned unresolved.
func (r *Registry) parseProto(name string, content []byte) ([]*pendingField, error) {
	parsedBody, err := protoparser.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	protoFile := &schema.ProtoFile{
		Name:     name,
		Syntax:   "proto3",
		Messages: []*schema.Message{},
		Enums:    []*schema.Enum{},
	}
	if parsedBody.Syntax != nil && strings.Contains(parsedBody.Syntax.ProtobufVersion, "proto2") {
		protoFile.Syntax = "proto2"
	}

	var pending []*pendingField
	for _, body := range parsedBody.ProtoBody {
		switch b := body.(type) {
		case *protoparserparser.Package:
			protoFile.Package = b.Name
		case *protoparserparser.Import:
			// Chronik schemas are self-contained; imports are not followed.
		case *protoparserparser.Message:
			msg, p, err := convertMessage(b, "")
			if err != nil {
				return nil, err
			}
			protoFile.Messages = append(protoFile.Messages, msg)
			pending = append(pending, p...)
		case *protoparserparser.Enum:
			enum, err := convertEnum(b)
			if err != nil {
				return nil, err
			}
			protoFile.Enums = append(protoFile.Enums, enum)
		}
	}

	// scopes were collected relative to the file, qualify them now that the
	// package is known
	for _, p := range pending {
		p.scope = r.getFullName(protoFile.Package, p.scope)
	}

	if err := r.registerNames(protoFile); err != nil {
		return nil, err
	}
	r.repo.ProtoFiles[name] = protoFile
	return pending, nil
}

// convertMessage turns a parsed message into its descriptor table. parent is
// the dotted path of the enclosing message, empty for top level messages.
func convertMessage(m *protoparserparser.Message, parent string) (*schema.Message, []*pendingField, error) {
	scope := m.MessageName
	if parent != "" {
		scope = parent + "." + m.MessageName
	}
	msg := &schema.Message{
		Name:        m.MessageName,
		Fields:      []*schema.Field{},
		NestedTypes: []*schema.Message{},
		NestedEnums: []*schema.Enum{},
		OneofGroups: []*schema.Oneof{},
	}
	var pending []*pendingField
	seen := make(map[int32]string)

	addField := func(name, typeName, number string, label schema.FieldLabel, oneof string) (*schema.Field, error) {
		num, err := strconv.ParseInt(number, 0, 32)
		if err != nil || num < 1 || num > maxFieldNumber {
			return nil, fmt.Errorf("message %s: invalid field number %q for %s", scope, number, name)
		}
		if prev, dup := seen[int32(num)]; dup {
			return nil, fmt.Errorf("message %s: field number %d used by both %s and %s", scope, num, prev, name)
		}
		seen[int32(num)] = name

		field := &schema.Field{
			Name:     name,
			JsonName: jsonName(name),
			Number:   int32(num),
			Label:    label,
			Oneof:    oneof,
		}
		if prim, ok := schema.LookupPrimitive(typeName); ok {
			field.Type = schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: prim}
		} else {
			pending = append(pending, &pendingField{field: field, typeName: typeName, scope: scope})
		}
		msg.Fields = append(msg.Fields, field)
		return field, nil
	}

	for _, body := range m.MessageBody {
		switch b := body.(type) {
		case *protoparserparser.Field:
			label := schema.LabelOptional
			switch {
			case b.IsRepeated:
				label = schema.LabelRepeated
			case b.IsRequired:
				label = schema.LabelRequired
			}
			if _, err := addField(b.FieldName, b.Type, b.FieldNumber, label, ""); err != nil {
				return nil, nil, err
			}
		case *protoparserparser.Oneof:
			group := &schema.Oneof{Name: b.OneofName}
			for _, of := range b.OneofFields {
				field, err := addField(of.FieldName, of.Type, of.FieldNumber, schema.LabelOptional, b.OneofName)
				if err != nil {
					return nil, nil, err
				}
				group.Fields = append(group.Fields, field)
			}
			msg.OneofGroups = append(msg.OneofGroups, group)
		case *protoparserparser.MapField:
			return nil, nil, fmt.Errorf("message %s: map field %s is not supported", scope, b.MapName)
		case *protoparserparser.Message:
			nested, p, err := convertMessage(b, scope)
			if err != nil {
				return nil, nil, err
			}
			msg.NestedTypes = append(msg.NestedTypes, nested)
			pending = append(pending, p...)
		case *protoparserparser.Enum:
			nested, err := convertEnum(b)
			if err != nil {
				return nil, nil, err
			}
			msg.NestedEnums = append(msg.NestedEnums, nested)
		}
	}
	return msg, pending, nil
}

func convertEnum(e *protoparserparser.Enum) (*schema.Enum, error) {
	enum := &schema.Enum{Name: e.EnumName, Values: []*schema.EnumValue{}}
	for _, body := range e.EnumBody {
		ef, ok := body.(*protoparserparser.EnumField)
		if !ok {
			continue
		}
		num, err := strconv.ParseInt(ef.Number, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("enum %s: invalid value %q for %s", e.EnumName, ef.Number, ef.Ident)
		}
		enum.Values = append(enum.Values, &schema.EnumValue{Name: ef.Ident, Number: int32(num)})
	}
	if len(enum.Values) == 0 {
		return nil, fmt.Errorf("enum %s has no values", e.EnumName)
	}
	return enum, nil
}

// maxFieldNumber is the largest field number protobuf allows.
const maxFieldNumber = 1<<29 - 1

// jsonName converts a proto field name to its lowerCamelCase JSON key:
// "time_first_seen" -> "timeFirstSeen", "AddedToMempool" -> "addedToMempool".
func jsonName(name string) string {
	var sb strings.Builder
	upperNext := false
	for i, r := range name {
		switch {
		case r == '_':
			upperNext = true
		case upperNext:
			sb.WriteRune(unicode.ToUpper(r))
			upperNext = false
		case i == 0:
			sb.WriteRune(unicode.ToLower(r))
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

/*
This helper function will return the entity for any referenced type ,
Be it top/file or nested entities. If not found will return an error
Ref - https://github.com/protocolbuffers/protobuf/blob/b7a5772caf08d62a20fd1bca258f501fa4db022c/src/google/protobuf/descriptor.proto#L186-L191
*/
func getReferencedType(typeName, prefix string, allResolvedEntities map[string]struct{}) (string, error) {
	// check if fully qualifed prefixed by dot
	if strings.HasPrefix(typeName, ".") {
		return getFullyQualifiedType(typeName, allResolvedEntities)
	}
	// try resolving from inner entities up till the parent package
	if result, ok := splitNameAndCheck(typeName, prefix, allResolvedEntities); ok {
		return result, nil
	}
	// top level entity of a file without a package
	if _, ok := allResolvedEntities[typeName]; ok {
		return typeName, nil
	}
	return "", fmt.Errorf("unable to resolve type name: %s", typeName)
}

// splitNameAndCheck splits the prefixName and tries to append the typeName and find the entity for resolution
// it also tries the find the entities defined using relative path
func splitNameAndCheck(typeName, prefix string, allResolvedEntities map[string]struct{}) (string, bool) {
	prefixSplit := strings.Split(prefix, ".")

	for len(prefixSplit) > 0 && prefixSplit[0] != "" {
		entityName := strings.Join(prefixSplit, ".") + "." + typeName
		if _, ok := allResolvedEntities[entityName]; ok {
			return entityName, true
		}
		// Omit the last element in each iteration as we go level above to outer entity
		prefixSplit = prefixSplit[:len(prefixSplit)-1]
	}
	return "", false
}

func getFullyQualifiedType(typeName string, allResolvedEntities map[string]struct{}) (string, error) {
	typeName = strings.TrimPrefix(typeName, ".")
	if _, ok := allResolvedEntities[typeName]; ok {
		return typeName, nil
	}
	return "", fmt.Errorf("unable to resolve fully qualified (.) type name: %s", typeName)
}
