package domain

// FieldType is the input type a client should present for a field.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeInteger FieldType = "integer"
	FieldTypeNumber  FieldType = "number"
	FieldTypeDate    FieldType = "date"
	FieldTypeSelect  FieldType = "select"
)

// FieldDescriptor describes one input of the order ticket. Descriptors are
// static metadata; they carry no draft values.
type FieldDescriptor struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	// Options lists the allowed values for select fields.
	Options []string `json:"options,omitempty"`
	// Modes restricts the field to specific execution modes. Empty means the
	// field is shown regardless of mode.
	Modes []ExecutionMode `json:"modes,omitempty"`
}

// commonFields are presented for every instrument kind.
var commonFields = []FieldDescriptor{
	{Name: "symbol", Label: "Symbol", Type: FieldTypeString, Required: true},
	{Name: "quantity", Label: "Quantity", Type: FieldTypeInteger, Required: true},
	{
		Name:     "mode",
		Label:    "Execution",
		Type:     FieldTypeSelect,
		Required: true,
		Options:  []string{string(ModeImmediate), string(ModeLimit)},
	},
	{
		Name:     "limit_price",
		Label:    "Limit price",
		Type:     FieldTypeNumber,
		Required: true,
		Modes:    []ExecutionMode{ModeLimit},
	},
}

// variantFields holds the extra fields per instrument kind. Adding a kind
// means adding one union variant and one entry here; existing variants are
// untouched.
var variantFields = map[InstrumentKind][]FieldDescriptor{
	KindSpot: nil,
	KindDerivative: {
		{Name: "strike", Label: "Strike", Type: FieldTypeNumber, Required: true},
		{Name: "expiry", Label: "Expiry", Type: FieldTypeDate, Required: true},
	},
}

// FieldsFor returns the field descriptors to present for the given
// instrument kind: the common set followed by the variant's extras. It is a
// pure mapping and always returns a fresh slice.
func FieldsFor(kind InstrumentKind) []FieldDescriptor {
	extra := variantFields[kind]
	out := make([]FieldDescriptor, 0, len(commonFields)+len(extra))
	out = append(out, commonFields...)
	out = append(out, extra...)
	return out
}
