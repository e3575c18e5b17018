package domain

// Enumerations
const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentOverdue PaymentStatus = "overdue"

	KeyUnused KeyStatus = "unused"
	KeyUsed   KeyStatus = "used"

	DevicePending DeviceStatus = "pending"
	DeviceActive  DeviceStatus = "active"

	DebtCreditUsed DebtType = "CREDIT_USED"
	DebtPayment    DebtType = "PAYMENT"
)

// MaxDevicesPerShop caps licensed installations per shop.
const MaxDevicesPerShop = 3

// LicenseDays is the activation window granted by one product key.
const LicenseDays = 30

type PaymentStatus string
type KeyStatus string
type DeviceStatus string
type DebtType string

// All timestamps are epoch milliseconds, stored and on the wire, so the
// Android client and the dashboard share one clock format.

type Shop struct {
	ID                string
	Name              string
	OwnerName         string
	OwnerSurname      string
	PhoneNumber       string
	Services          string
	Address           string
	PIN               *string
	PaymentStatus     PaymentStatus
	SubscriptionStart *int64
	SubscriptionEnd   *int64
	LastPaymentDate   *int64
	CreatedAt         int64
	UpdatedAt         int64
}

type Item struct {
	ID        string
	LocalID   string
	ShopID    string
	Name      string
	Category  string
	PriceUSD  float64
	PriceZWG  float64
	Quantity  int
	CreatedAt int64
	UpdatedAt int64
}

// Sale rows are immutable once written; there is no update path.
type Sale struct {
	ID            string
	LocalID       string
	ShopID        string
	ItemID        *string
	ItemName      string
	Quantity      int
	TotalUSD      float64
	TotalZWG      float64
	PaymentMethod string
	DebtUsedUSD   float64
	DebtUsedZWG   float64
	DebtID        *string
	SaleDate      int64
	CreatedAt     int64
}

type Debt struct {
	ID           string
	LocalID      string
	ShopID       string
	CustomerName string
	AmountUSD    float64
	AmountZWG    float64
	Type         DebtType
	Notes        string
	Cleared      bool
	ClearedAt    *int64
	CreatedAt    int64
	UpdatedAt    int64
}

type ProductKey struct {
	ID          string
	Key         string
	Status      KeyStatus
	CreatedAt   int64
	ActivatedAt *int64
	ExpiresAt   *int64
	ShopID      *string
	AppID       *string
}

type Device struct {
	ID           string
	AppID        string
	ShopID       string
	Slot         int
	Status       DeviceStatus
	ProductKey   *string
	RegisteredAt int64
	ActivatedAt  *int64
	ExpiresAt    *int64
	LastSeen     *int64
}

type SyncLog struct {
	ID       int64
	ShopID   string
	SyncTime int64
	Success  bool
}

type AdminUser struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    int64
	LastLoginAt  *int64
}

// Sync batch payloads. Each change carries the client-assigned local_id
// used as the idempotency key; optional timestamps default to server
// merge time when nil.

type ItemChange struct {
	LocalID   string
	Name      string
	Category  string
	PriceUSD  float64
	PriceZWG  float64
	Quantity  int
	CreatedAt *int64
}

type SaleChange struct {
	LocalID       string
	ItemID        *string
	ItemName      string
	Quantity      int
	TotalUSD      float64
	TotalZWG      float64
	PaymentMethod string
	DebtUsedUSD   float64
	DebtUsedZWG   float64
	DebtID        *string
	SaleDate      *int64
}

type DebtChange struct {
	LocalID      string
	CustomerName string
	AmountUSD    float64
	AmountZWG    float64
	Type         DebtType
	Notes        string
	Cleared      bool
	ClearedAt    *int64
	CreatedAt    *int64
}

type SyncBatch struct {
	Items []ItemChange
	Sales []SaleChange
	Debts []DebtChange
}

type SyncCounts struct {
	Created int
	Updated int
}

type SyncResults struct {
	Items    SyncCounts
	Sales    SyncCounts
	Debts    SyncCounts
	SyncTime int64
}

// Aggregates served to the admin dashboard.
type AdminStats struct {
	TotalShops    int
	TotalKeys     int
	UsedKeys      int
	TotalDevices  int
	ActiveDevices int
}

type SalesSummary struct {
	TotalTransactions int
	TotalUSD          float64
	TotalZWG          float64
	TotalItemsSold    int
}

type TopItem struct {
	ItemName   string
	TotalQty   int
	RevenueUSD float64
}

type DebtsSummary struct {
	TotalDebts  int
	ActiveDebts int
	TotalUSD    float64
	TotalZWG    float64
}
