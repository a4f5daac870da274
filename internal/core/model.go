package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaskStatus is the closed lifecycle vocabulary for field tasks.
// The legacy data this system replaces stored free-text Russian labels;
// those are normalized to these four values on import.
type TaskStatus string

const (
	TaskPlanned    TaskStatus = "planned"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed out of s.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskCancelled
}

// TaskCategory is the coarse classification of field work. It drives which
// stock movement, if any, completing a task requires (see effects.go).
type TaskCategory string

const (
	CategorySoilPreparation TaskCategory = "soil_preparation"
	CategorySowing          TaskCategory = "sowing"
	CategoryCropCare        TaskCategory = "crop_care"
	CategoryPlantProtection TaskCategory = "plant_protection"
	CategoryHarvest         TaskCategory = "harvest"
	CategoryPostHarvest     TaskCategory = "post_harvest"
)

// OperationKind distinguishes ledger entries adding stock from entries
// removing it.
type OperationKind string

const (
	OperationIncoming OperationKind = "incoming"
	OperationOutgoing OperationKind = "outgoing"
)

// ObjectKind identifies which catalog a ledger entry or task stock link
// points into.
type ObjectKind string

const (
	ObjectCrop       ObjectKind = "crop"
	ObjectFertilizer ObjectKind = "fertilizer"
)

// PlotOwnership is the tenure of a land plot. Rented plots must carry a
// rental expiry date.
type PlotOwnership string

const (
	OwnershipOwn    PlotOwnership = "own"
	OwnershipRented PlotOwnership = "rented"
)

// PlotStatus is the projected display label for a plot, derived from its
// task history by the status projector. "new" is the state of a plot with
// no completed or started tasks.
type PlotStatus string

const (
	PlotNew        PlotStatus = "new"
	PlotPlowed     PlotStatus = "plowed"
	PlotCultivated PlotStatus = "cultivated"
	PlotPrepared   PlotStatus = "prepared"
	PlotSown       PlotStatus = "sown"
	PlotTended     PlotStatus = "tended"
	PlotTreated    PlotStatus = "treated"
	PlotHarvesting PlotStatus = "harvesting"
	PlotResting    PlotStatus = "resting"
)

// WarehouseType restricts which object kinds a warehouse may store:
// grain and vegetable stores hold crops, fertilizer stores hold fertilizers.
type WarehouseType string

const (
	GrainStore      WarehouseType = "grain_store"
	VegetableStore  WarehouseType = "vegetable_store"
	FertilizerStore WarehouseType = "fertilizer_store"
)

// Vertex is one corner of a plot boundary polygon.
type Vertex struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Plot represents a land plot. Status and Crop are projections owned by the
// status projector; editing them directly is reserved for plot creation.
type Plot struct {
	ID               int
	Name             string
	Geometry         []Vertex
	AreaHa           decimal.Decimal
	Ownership        PlotOwnership
	RentalExpiryDate *string // YYYY-MM-DD, required iff rented
	Status           PlotStatus
	Crop             string
	CadastralNumber  string
	Address          string
	LandCategory     string
	LandUse          string
	CadastralValue   decimal.Decimal
	OwnerName        string
	OwnerContacts    string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Crop is a catalog entry for a culture that can be sown and harvested.
type Crop struct {
	ID          int
	Name        string
	Category    string
	CropType    string
	Variety     string
	Description string
	CreatedAt   time.Time
}

// Fertilizer is a catalog entry for a fertilizer or herbicide.
type Fertilizer struct {
	ID             int
	Name           string
	FertilizerType string
	Form           string
	Manufacturer   string
	ExpiryDate     *string // YYYY-MM-DD
	CreatedAt      time.Time
}

// Warehouse is a storage location with a hard capacity. The invariant that
// total net stock never exceeds Capacity is enforced by StockService.
type Warehouse struct {
	ID            int
	Name          string
	Address       string
	Type          WarehouseType
	StorageMethod string
	Capacity      decimal.Decimal
	CapacityUnit  string
	CreatedAt     time.Time
}

// Worker is a farm worker master record.
type Worker struct {
	ID         int
	Name       string
	Position   string
	Contacts   string
	HireDate   *string
	FireDate   *string
	Salary     decimal.Decimal
	SalaryType string
	Status     string
	Comment    string
	CreatedAt  time.Time
}

// Equipment is a machine or implement master record.
type Equipment struct {
	ID        int
	Category  string
	Type      string
	Subtype   string
	Name      string
	Year      string
	RegNumber string
	Status    string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LedgerEntry is one immutable quantity movement in the warehouse ledger.
// Entries are append-only; net stock is derived by summation.
type LedgerEntry struct {
	ID          int64
	WarehouseID int
	Kind        OperationKind
	ObjectKind  ObjectKind
	ObjectID    int
	ObjectName  string // joined from the catalog
	Date        string // YYYY-MM-DD
	Quantity    decimal.Decimal
	Unit        string
	Reason      string
	Comment     string
	RecordedBy  string
	PlotID      *int
	TaskID      *int
	CreatedAt   time.Time
}

// StockLink is a task's optional binding to a warehouse movement that its
// completion must execute: which warehouse, which object, how much.
type StockLink struct {
	WarehouseID int
	ObjectKind  ObjectKind
	ObjectID    int
	Quantity    decimal.Decimal
	Unit        string
}

// FieldTask is a unit of field work against a plot.
type FieldTask struct {
	ID           int
	PlotID       int
	Category     TaskCategory
	TaskType     string
	Status       TaskStatus
	PlanDate     string  // YYYY-MM-DD
	StartDate    *string // set on start
	EndDate      *string // set on completion
	Description  string
	Comment      string
	WorkerIDs    []int // ordered
	EquipmentIDs []int // ordered
	Stock        *StockLink
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StockLevel is a read view of the net stock of one object in one warehouse.
type StockLevel struct {
	WarehouseID   int
	WarehouseName string
	ObjectKind    ObjectKind
	ObjectID      int
	ObjectName    string
	Net           decimal.Decimal
	Unit          string
}

// HarvestRecord is one harvest event, kept per plot for analytics.
type HarvestRecord struct {
	ID      int
	PlotID  int
	TaskID  *int
	Date    string
	Culture string
	Amount  decimal.Decimal
}

// Document is an attachment owned by some entity (plot, task, crop,
// fertilizer, equipment, warehouse operation).
type Document struct {
	ID           int
	EntityKind   string
	EntityID     int
	DocumentType string
	FileName     string
	FileType     string
	FileData     []byte
	UploadDate   time.Time
}
