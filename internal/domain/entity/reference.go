package entity

// ReferenceKind tipos conocidos de objeto externo que origina un movimiento.
type ReferenceKind string

const (
	ReferenceNone          ReferenceKind = ""
	ReferenceOrder         ReferenceKind = "order"
	ReferenceManual        ReferenceKind = "manual_adjustment"
	ReferenceTransfer      ReferenceKind = "transfer"
	ReferencePurchaseOrder ReferenceKind = "purchase_order"
	ReferenceCount         ReferenceKind = "count"
)

// Reference correlación tipada con el dominio del llamador (ej. pedido).
type Reference struct {
	Kind ReferenceKind
	ID   string
}

func OrderRef(id string) Reference         { return Reference{Kind: ReferenceOrder, ID: id} }
func ManualRef(id string) Reference        { return Reference{Kind: ReferenceManual, ID: id} }
func TransferRef(id string) Reference      { return Reference{Kind: ReferenceTransfer, ID: id} }
func PurchaseOrderRef(id string) Reference { return Reference{Kind: ReferencePurchaseOrder, ID: id} }
func CountRef(id string) Reference         { return Reference{Kind: ReferenceCount, ID: id} }

// IsZero indica ausencia de referencia.
func (r Reference) IsZero() bool { return r.Kind == ReferenceNone && r.ID == "" }

// Valid: tipo conocido y, si hay tipo, un ID.
func (r Reference) Valid() bool {
	switch r.Kind {
	case ReferenceNone:
		return r.ID == ""
	case ReferenceOrder, ReferenceManual, ReferenceTransfer, ReferencePurchaseOrder, ReferenceCount:
		return r.ID != ""
	}
	return false
}

// ParseReferenceKind convierte el texto persistido/recibido; ok=false si es desconocido.
func ParseReferenceKind(s string) (ReferenceKind, bool) {
	k := ReferenceKind(s)
	switch k {
	case ReferenceNone, ReferenceOrder, ReferenceManual, ReferenceTransfer, ReferencePurchaseOrder, ReferenceCount:
		return k, true
	}
	return ReferenceNone, false
}
