package ir

// ContractContext is the enclosing service contract of an operation.
// Descriptors share one ContractContext by pointer and never modify it.
type ContractContext struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

// Direction is the transmission direction of an operation parameter.
type Direction string

const (
	// DirectionInOnly parameters travel from caller to service only.
	DirectionInOnly Direction = "InOnly"
	// DirectionOutOnlyRef parameters are populated by the service only.
	DirectionOutOnlyRef Direction = "OutOnlyRef"
	// DirectionInAndOutRef parameters are sent and returned.
	DirectionInAndOutRef Direction = "InAndOutRef"
)

// IsInput reports whether the caller sends parameters of this direction.
func (d Direction) IsInput() bool {
	return d != DirectionOutOnlyRef
}

// IsOutput reports whether the service returns parameters of this direction.
func (d Direction) IsOutput() bool {
	return d != DirectionInOnly
}

// TypeRef is a declared parameter, return or fault detail type together
// with the annotations carried by the type itself.
type TypeRef struct {
	Name            string `json:"name"`
	MessageContract bool   `json:"message_contract,omitempty"` // type is a message envelope
	WrapperName     string `json:"wrapper_name,omitempty"`     // envelope wrapper element name
}

// IsVoid reports whether the reference names no type at all.
func (t TypeRef) IsVoid() bool {
	return t.Name == ""
}

// ParamDecl is one declared method parameter.
type ParamDecl struct {
	Name             string  `json:"name"`
	Type             TypeRef `json:"type"`
	IsOut            bool    `json:"is_out,omitempty"`
	IsByRef          bool    `json:"is_by_ref,omitempty"`
	ElementName      string  `json:"element_name,omitempty"`
	ElementNamespace string  `json:"element_namespace,omitempty"`
	MessageName      string  `json:"message_name,omitempty"`
}

// FaultDecl is one fault-contract annotation attached to a method.
type FaultDecl struct {
	Detail    TypeRef `json:"detail"`
	Name      string  `json:"name,omitempty"`
	Namespace string  `json:"namespace,omitempty"`
	Action    string  `json:"action,omitempty"`
}

// OperationDecl is the operation-level annotation of a method.
type OperationDecl struct {
	Name        string `json:"name,omitempty"`
	Action      string `json:"action,omitempty"`
	ReplyAction string `json:"reply_action,omitempty"`
	IsOneWay    bool   `json:"is_one_way,omitempty"`
}

// ReturnDecl describes the return value of a method.
type ReturnDecl struct {
	Type TypeRef `json:"type"`
	Name string  `json:"name,omitempty"` // explicit wire name of the return value
}

// MethodDecl is one declared service method.
type MethodDecl struct {
	Name      string        `json:"name"`
	Params    []ParamDecl   `json:"params"`
	Return    ReturnDecl    `json:"return"`
	Operation OperationDecl `json:"operation"`
	Faults    []FaultDecl   `json:"faults"`
}

// ContractDecl is a compiled service contract declaration.
type ContractDecl struct {
	Context ContractContext `json:"context"`
	Methods []MethodDecl    `json:"methods"`
}

// ParameterDescriptor is the wire-ready description of one parameter.
type ParameterDescriptor struct {
	Index         int       `json:"index"` // position in the declared parameter list
	Direction     Direction `json:"direction"`
	WireName      string    `json:"wire_name"`
	WireNamespace string    `json:"wire_namespace"`
	Param         ParamDecl `json:"param"`
}

// FaultDescriptor is the wire-ready description of one declared fault.
type FaultDescriptor struct {
	PayloadType TypeRef `json:"payload_type"`
	Namespace   string  `json:"namespace"`
	Name        string  `json:"name"`
	ElementName string  `json:"element_name"`
	Action      string  `json:"action"`
}

// OperationDescriptor is the complete protocol-ready description of one
// operation. It is immutable once built: callers must treat every field,
// including the slices, as read-only.
type OperationDescriptor struct {
	Contract          *ContractContext      `json:"contract"`
	Name              string                `json:"name"`
	SOAPAction        string                `json:"soap_action"`
	ReplyAction       string                `json:"reply_action"`
	IsOneWay          bool                  `json:"is_one_way"`
	IsRequestWrapped  bool                  `json:"is_request_wrapped"`
	IsResponseWrapped bool                  `json:"is_response_wrapped"`
	AllParameters     []ParameterDescriptor `json:"all_parameters"`
	Faults            []FaultDescriptor     `json:"faults"`
	ReturnWireName    string                `json:"return_wire_name"`
	Method            MethodDecl            `json:"method"`
}

// InParameters returns the parameters the caller sends, in declaration order.
func (o *OperationDescriptor) InParameters() []ParameterDescriptor {
	return o.filterParameters(Direction.IsInput)
}

// OutParameters returns the parameters the service returns, in declaration order.
func (o *OperationDescriptor) OutParameters() []ParameterDescriptor {
	return o.filterParameters(Direction.IsOutput)
}

func (o *OperationDescriptor) filterParameters(keep func(Direction) bool) []ParameterDescriptor {
	out := make([]ParameterDescriptor, 0, len(o.AllParameters))
	for _, p := range o.AllParameters {
		if keep(p.Direction) {
			out = append(out, p)
		}
	}
	return out
}

// FaultByName returns the fault descriptor with the given name.
func (o *OperationDescriptor) FaultByName(name string) (FaultDescriptor, bool) {
	for _, f := range o.Faults {
		if f.Name == name {
			return f, true
		}
	}
	return FaultDescriptor{}, false
}
