package schema

import (
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/code-payments/program-sdk-go/pkg/solana"
)

// Declarative program configuration. Every option maps one to one onto a
// validator check or layout declaration; the loader performs no checking of
// its own beyond what program construction already asserts.
type fileConfig struct {
	ProgramID      string              `mapstructure:"program_id"`
	Mode           string              `mapstructure:"mode"`
	Shapes         []shapeConfig       `mapstructure:"shapes"`
	SharedAccounts []descriptorConfig  `mapstructure:"shared_accounts"`
	Instructions   []instructionConfig `mapstructure:"instructions"`
}

type shapeConfig struct {
	Name   string        `mapstructure:"name"`
	Tagged bool          `mapstructure:"tagged"`
	Fields []fieldConfig `mapstructure:"fields"`
}

type fieldConfig struct {
	Name   string        `mapstructure:"name"`
	Type   string        `mapstructure:"type"`
	Fields []fieldConfig `mapstructure:"fields"`
}

type descriptorConfig struct {
	Name     string   `mapstructure:"name"`
	Role     string   `mapstructure:"role"`
	Size     *int     `mapstructure:"size"`
	Shape    string   `mapstructure:"shape"`
	Signer   bool     `mapstructure:"signer"`
	Writable bool     `mapstructure:"writable"`
	Owner    string   `mapstructure:"owner"`
	Address  string   `mapstructure:"address"`
	Seeds    []string `mapstructure:"seeds"`
	Bump     *uint8   `mapstructure:"bump"`
	HasOne   []string `mapstructure:"has_one"`
}

type instructionConfig struct {
	Name     string             `mapstructure:"name"`
	Accounts []descriptorConfig `mapstructure:"accounts"`
	Args     []fieldConfig      `mapstructure:"args"`
}

// Load reads a declarative program definition from a config file.
func Load(path string) (*Program, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "failed to read program config")
	}
	return FromViper(v)
}

// FromViper builds a Program from an already loaded viper instance.
func FromViper(v *viper.Viper) (*Program, error) {
	var cfg fileConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal program config")
	}

	id, err := solana.PublicKeyFromBase58(cfg.ProgramID)
	if err != nil {
		return nil, errors.Wrap(err, "program_id")
	}

	shapes := make(map[string]*AccountShape, len(cfg.Shapes))
	for _, sc := range cfg.Shapes {
		fields, err := parseFields(sc.Fields)
		if err != nil {
			return nil, errors.Wrapf(err, "shape %q", sc.Name)
		}
		shape, err := NewAccountShape(sc.Name, sc.Tagged, fields...)
		if err != nil {
			return nil, errors.Wrapf(err, "shape %q", sc.Name)
		}
		shapes[sc.Name] = shape
	}

	instructions := make([]*Instruction, 0, len(cfg.Instructions))
	for _, ic := range cfg.Instructions {
		accounts, err := parseDescriptors(ic.Accounts, shapes)
		if err != nil {
			return nil, errors.Wrapf(err, "instruction %q", ic.Name)
		}
		args, err := parseFields(ic.Args)
		if err != nil {
			return nil, errors.Wrapf(err, "instruction %q", ic.Name)
		}
		instructions = append(instructions, NewInstruction(ic.Name, accounts, args))
	}

	switch cfg.Mode {
	case "", "per_instruction":
		return NewProgram(id, instructions...)
	case "shared_accounts":
		shared, err := parseDescriptors(cfg.SharedAccounts, shapes)
		if err != nil {
			return nil, errors.Wrap(err, "shared_accounts")
		}
		return NewSharedAccountsProgram(id, shared, instructions...)
	case "single":
		if len(instructions) != 1 {
			return nil, errors.Errorf("single mode declares %d instructions", len(instructions))
		}
		return NewSingleInstructionProgram(id, instructions[0])
	}
	return nil, errors.Errorf("unknown dispatch mode %q", cfg.Mode)
}

func parseDescriptors(configs []descriptorConfig, shapes map[string]*AccountShape) ([]AccountDescriptor, error) {
	descriptors := make([]AccountDescriptor, 0, len(configs))
	for _, dc := range configs {
		desc, err := parseDescriptor(dc, shapes)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, desc)
	}
	return descriptors, nil
}

func parseDescriptor(dc descriptorConfig, shapes map[string]*AccountShape) (AccountDescriptor, error) {
	desc := AccountDescriptor{
		Name:     dc.Name,
		DataSize: SizeAny,
	}

	switch dc.Role {
	case "", "readonly":
		desc.Role = RoleReadonly
	case "mut":
		desc.Role = RoleMut
		desc.Constraints.Writable = true
	case "signer":
		desc.Role = RoleSigner
		desc.Constraints.Signer = true
	case "account":
		desc.Role = RoleAccount
	default:
		return desc, errors.Errorf("account %q: unknown role %q", dc.Name, dc.Role)
	}

	if dc.Size != nil {
		desc.DataSize = *dc.Size
	}
	if dc.Shape != "" {
		shape, ok := shapes[dc.Shape]
		if !ok {
			return desc, errors.Errorf("account %q: undeclared shape %q", dc.Name, dc.Shape)
		}
		desc.Shape = shape
	}

	desc.Constraints.Signer = desc.Constraints.Signer || dc.Signer
	desc.Constraints.Writable = desc.Constraints.Writable || dc.Writable
	desc.Constraints.HasOne = dc.HasOne
	desc.Constraints.Bump = dc.Bump

	if dc.Owner != "" {
		owner, err := solana.PublicKeyFromBase58(dc.Owner)
		if err != nil {
			return desc, errors.Wrapf(err, "account %q owner", dc.Name)
		}
		desc.Constraints.Owner = owner
	}
	if dc.Address != "" {
		address, err := solana.PublicKeyFromBase58(dc.Address)
		if err != nil {
			return desc, errors.Wrapf(err, "account %q address", dc.Name)
		}
		desc.Constraints.Address = address
	}

	for _, seed := range dc.Seeds {
		decoded, err := parseSeed(seed)
		if err != nil {
			return desc, errors.Wrapf(err, "account %q", dc.Name)
		}
		desc.Constraints.Seeds = append(desc.Constraints.Seeds, decoded)
	}

	return desc, nil
}

// parseSeed treats a seed as literal bytes unless prefixed with "b58:", in
// which case it decodes as a key or other base58 material.
func parseSeed(seed string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(seed, "b58:"); ok {
		decoded, err := base58.Decode(rest)
		if err != nil {
			return nil, errors.Wrapf(err, "seed %q", seed)
		}
		return decoded, nil
	}
	return []byte(seed), nil
}

func parseFields(configs []fieldConfig) ([]Field, error) {
	fields := make([]Field, 0, len(configs))
	for _, fc := range configs {
		field := Field{Name: fc.Name}

		switch fc.Type {
		case "u8":
			field.Type = TypeUint8
		case "u16":
			field.Type = TypeUint16
		case "u32":
			field.Type = TypeUint32
		case "u64":
			field.Type = TypeUint64
		case "i64":
			field.Type = TypeInt64
		case "bool":
			field.Type = TypeBool
		case "pubkey":
			field.Type = TypePublicKey
		case "bytes32":
			field.Type = TypeBytes32
		case "struct":
			field.Type = TypeStruct
			nested, err := parseFields(fc.Fields)
			if err != nil {
				return nil, err
			}
			field.Fields = nested
		default:
			return nil, errors.Wrapf(ErrUnknownFieldType, "field %q type %q", fc.Name, fc.Type)
		}

		fields = append(fields, field)
	}
	return fields, nil
}
