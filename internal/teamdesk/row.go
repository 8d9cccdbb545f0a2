package teamdesk

// Row is one palletizing record as returned by the TeamDesk select endpoint.
// Only the columns the packhouse pipeline reads are mapped; everything else
// in the payload is dropped at decode time.
type Row struct {
	Timestamp     Value `json:"Timestamp,omitzero"`
	DateModified  Value `json:"Date Modified,omitzero"`
	DateCompleted Value `json:"Date Completed,omitzero"`
	DateCreated   Value `json:"Date Created,omitzero"`

	Seasons  Value `json:"Seasons,omitzero"`
	Cultivar Value `json:"Cultivar,omitzero"`
	Variety  Value `json:"Variety,omitzero"`

	Block              Value `json:"Block,omitzero"`
	BlockNo            Value `json:"Block No,omitzero"`
	ProductionUnitName Value `json:"Production Unit Name,omitzero"`
	ProductionUnit     Value `json:"Production Unit,omitzero"`
	PUC                Value `json:"PUC,omitzero"`
	PUCName            Value `json:"PUC Name,omitzero"`

	Grade     Value `json:"Grade,omitzero"`
	Class     Value `json:"Class,omitzero"`
	CountSize Value `json:"Count/Size,omitzero"`

	Brand         Value `json:"Brand,omitzero"`
	Client        Value `json:"Client,omitzero"`
	ClientOrder   Value `json:"Client Order,omitzero"`
	PackType      Value `json:"Pack Type,omitzero"`
	TargetCountry Value `json:"Target Country,omitzero"`
	TargetMarket  Value `json:"Target Market,omitzero"`

	PackQty         Value `json:"Pack QTY,omitzero"`
	Weight          Value `json:"Weight,omitzero"`
	PalletWeight    Value `json:"Pallet Weight,omitzero"`
	PackagingWeight Value `json:"Packaging Weight,omitzero"`

	PalletID Value `json:"Pallet ID,omitzero"`
	ID       Value `json:"Id,omitzero"`
	RowID    Value `json:"@row.id,omitzero"`
}

// BlockValue returns Block, falling back to Block No when Block is absent.
func (r Row) BlockValue() Value {
	if !r.Block.IsZero() {
		return r.Block
	}
	return r.BlockNo
}

// PalletValue returns Pallet ID, falling back to the row Id.
func (r Row) PalletValue() Value {
	if !r.PalletID.IsZero() {
		return r.PalletID
	}
	return r.ID
}

// DirectPuc returns the first present production-unit column.
func (r Row) DirectPuc() Value {
	for _, v := range []Value{r.ProductionUnitName, r.ProductionUnit, r.PUC, r.PUCName} {
		if !v.IsZero() {
			return v
		}
	}
	return Value{}
}
