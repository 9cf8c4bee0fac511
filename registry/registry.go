package registry

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/givelotus/chronik-go/schema"
)

// Registry stores the descriptor tables of the loaded protobuf messages. We
// look these up whenever a message is encoded or decoded. A Registry is
// read-only once loading has finished and is then safe for concurrent use.
type Registry struct {
	repo     *schema.ProtoRepo
	messages map[string]*schema.Message // fully qualified name -> message
	enums    map[string]*schema.Enum    // fully qualified name -> enum
}

func NewRegistry() *Registry {
	return &Registry{
		repo: &schema.ProtoRepo{
			ProtoFiles: make(map[string]*schema.ProtoFile),
		},
		messages: make(map[string]*schema.Message),
		enums:    make(map[string]*schema.Enum),
	}
}

// LoadSchema Given a path it will recursively scan all *proto files inside it and load them
func (r *Registry) LoadSchema(protoPath string) error {
	info, err := os.Stat(protoPath)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}

	var pending []*pendingField

	if !info.IsDir() {
		if !strings.HasSuffix(protoPath, ".proto") {
			return fmt.Errorf("file %s is not a .proto file", protoPath)
		}
		p, err := r.loadSingleProtoFile(protoPath)
		if err != nil {
			return fmt.Errorf("failed to load proto file: %w", err)
		}
		pending = p
	} else {
		err = filepath.WalkDir(protoPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".proto") {
				return nil
			}
			p, err := r.loadSingleProtoFile(path)
			if err != nil {
				return fmt.Errorf("failed to load proto file %s: %w", path, err)
			}
			pending = append(pending, p...)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to walk directory: %w", err)
		}
	}

	// Types may reference definitions from any loaded file, so references
	// are resolved once everything has been registered.
	if err := r.resolve(pending); err != nil {
		return fmt.Errorf("failed to build symbol table: %w", err)
	}
	return nil
}

// LoadProto parses .proto text and registers its definitions under name.
func (r *Registry) LoadProto(name string, content []byte) error {
	pending, err := r.parseProto(name, content)
	if err != nil {
		return fmt.Errorf("failed to load proto file %s: %w", name, err)
	}
	if err := r.resolve(pending); err != nil {
		return fmt.Errorf("failed to build symbol table: %w", err)
	}
	return nil
}

// loadSingleProtoFile loads and parses a single .proto file
func (r *Registry) loadSingleProtoFile(filePath string) ([]*pendingField, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return r.parseProto(filePath, content)
}

// registerNames registers all message and enum names of a file
func (r *Registry) registerNames(protoFile *schema.ProtoFile) error {
	pkg := protoFile.Package
	for _, msg := range protoFile.Messages {
		fullName := r.getFullName(pkg, msg.Name)
		if _, exists := r.messages[fullName]; exists {
			return fmt.Errorf("duplicate message %s", fullName)
		}
		msg.FullName = fullName
		r.messages[fullName] = msg

		if err := r.registerNestedNames(pkg, msg.Name, msg); err != nil {
			return err
		}
	}

	for _, enum := range protoFile.Enums {
		fullName := r.getFullName(pkg, enum.Name)
		if _, exists := r.enums[fullName]; exists {
			return fmt.Errorf("duplicate enum %s", fullName)
		}
		enum.FullName = fullName
		enum.Index()
		r.enums[fullName] = enum
	}
	return nil
}

// registerNestedNames registers nested message and enum names
func (r *Registry) registerNestedNames(pkg, parentName string, msg *schema.Message) error {
	for _, nestedMsg := range msg.NestedTypes {
		nestedFullName := r.getFullName(pkg, parentName+"."+nestedMsg.Name)
		if _, exists := r.messages[nestedFullName]; exists {
			return fmt.Errorf("duplicate message %s", nestedFullName)
		}
		nestedMsg.FullName = nestedFullName
		r.messages[nestedFullName] = nestedMsg

		if err := r.registerNestedNames(pkg, parentName+"."+nestedMsg.Name, nestedMsg); err != nil {
			return err
		}
	}

	for _, nestedEnum := range msg.NestedEnums {
		nestedFullName := r.getFullName(pkg, parentName+"."+nestedEnum.Name)
		nestedEnum.FullName = nestedFullName
		nestedEnum.Index()
		r.enums[nestedFullName] = nestedEnum
	}
	return nil
}

// resolve binds every message or enum typed field to its fully qualified
// definition and rebuilds the lookup tables of every message.
func (r *Registry) resolve(pending []*pendingField) error {
	entities := make(map[string]struct{}, len(r.messages)+len(r.enums))
	for name := range r.messages {
		entities[name] = struct{}{}
	}
	for name := range r.enums {
		entities[name] = struct{}{}
	}

	for _, p := range pending {
		fullName, err := getReferencedType(p.typeName, p.scope, entities)
		if err != nil {
			return fmt.Errorf("field %s.%s: %w", p.scope, p.field.Name, err)
		}
		if _, ok := r.messages[fullName]; ok {
			p.field.Type = schema.FieldType{Kind: schema.KindMessage, MessageType: fullName}
		} else {
			p.field.Type = schema.FieldType{Kind: schema.KindEnum, EnumType: fullName}
		}
	}

	for _, msg := range r.messages {
		sort.SliceStable(msg.Fields, func(i, j int) bool {
			return msg.Fields[i].Number < msg.Fields[j].Number
		})
		msg.Index()
	}
	return nil
}

func (r *Registry) getFullName(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

// GetMessage retrieves a message definition by name
func (r *Registry) GetMessage(name string) (*schema.Message, error) {
	if msg, exists := r.messages[name]; exists {
		return msg, nil
	}

	// Try without package prefix
	for fullName, msg := range r.messages {
		if strings.HasSuffix(fullName, "."+name) {
			return msg, nil
		}
	}

	return nil, fmt.Errorf("message not found: %s", name)
}

// GetEnum retrieves an enum definition by name
func (r *Registry) GetEnum(name string) (*schema.Enum, error) {
	if enum, exists := r.enums[name]; exists {
		return enum, nil
	}

	// Try without package prefix
	for fullName, enum := range r.enums {
		if strings.HasSuffix(fullName, "."+name) {
			return enum, nil
		}
	}

	return nil, fmt.Errorf("enum not found: %s", name)
}

// ListMessages returns all registered message names, sorted
func (r *Registry) ListMessages() []string {
	names := make([]string, 0, len(r.messages))
	for name := range r.messages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListEnums returns all registered enum names, sorted
func (r *Registry) ListEnums() []string {
	names := make([]string, 0, len(r.enums))
	for name := range r.enums {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Files returns the parsed files keyed by the name they were loaded under.
func (r *Registry) Files() map[string]*schema.ProtoFile {
	return r.repo.ProtoFiles
}
