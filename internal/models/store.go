package models

// ClientTypeCustom marks a store whose client type is held in CustomClientType.
const ClientTypeCustom = "custom"

// Store is a customer shop tracked by field sales.
type Store struct {
	ID               int64          `json:"id,omitempty"`
	StoreName        string         `json:"storeName"`
	ClientFirstName  string         `json:"clientFirstName,omitempty"`
	ClientLastName   string         `json:"clientLastName,omitempty"`
	PrimaryContact   string         `json:"primaryContact,omitempty"`
	SecondaryContact string         `json:"secondaryContact,omitempty"`
	Email            string         `json:"email,omitempty"`
	AddressLine1     string         `json:"addressLine1,omitempty"`
	AddressLine2     string         `json:"addressLine2,omitempty"`
	Village          string         `json:"villageOrCity,omitempty"`
	District         string         `json:"district,omitempty"`
	SubDistrict      string         `json:"subDistrict,omitempty"`
	City             string         `json:"city,omitempty"`
	State            string         `json:"state,omitempty"`
	Country          string         `json:"country,omitempty"`
	Pincode          string         `json:"pincode,omitempty"`
	Latitude         float64        `json:"latitude"`
	Longitude        float64        `json:"longitude"`
	ClientType       string         `json:"clientType,omitempty"`
	CustomClientType string         `json:"customClientType,omitempty"`
	Industry         string         `json:"industry,omitempty"`
	Intent           int            `json:"intent,omitempty"`
	MonthlySale      float64        `json:"monthlySale,omitempty"`
	BrandsInUse      []string       `json:"brandsInUse,omitempty"`
	BrandProCons     []BrandProCons `json:"brandProCons,omitempty"`
	Managers         []string       `json:"managers,omitempty"`
	EmployeeID       int64          `json:"employeeId,omitempty"`
	EmployeeName     string         `json:"employeeName,omitempty"`
	CreatedAt        string         `json:"createdAt,omitempty"`
}

// EffectiveClientType resolves the "custom" escape hatch.
func (s Store) EffectiveClientType() string {
	if s.ClientType == ClientTypeCustom && s.CustomClientType != "" {
		return s.CustomClientType
	}
	return s.ClientType
}

// ClientName joins the contact person's first and last name.
func (s Store) ClientName() string {
	switch {
	case s.ClientFirstName == "":
		return s.ClientLastName
	case s.ClientLastName == "":
		return s.ClientFirstName
	default:
		return s.ClientFirstName + " " + s.ClientLastName
	}
}

// BrandProCons records what a store says about a brand it stocks.
type BrandProCons struct {
	ID        int64    `json:"id,omitempty"`
	StoreID   int64    `json:"storeId,omitempty"`
	BrandName string   `json:"brandName"`
	Pros      []string `json:"pros,omitempty"`
	Cons      []string `json:"cons,omitempty"`
}

// Like is a product interest recorded against a store.
type Like struct {
	ID          int64  `json:"id,omitempty"`
	StoreID     int64  `json:"storeId,omitempty"`
	ProductName string `json:"productName"`
	CreatedDate string `json:"createdDate,omitempty"`
}

// TimelineEvent is one entry of a store's activity history.
type TimelineEvent struct {
	ID          int64  `json:"id,omitempty"`
	StoreID     int64  `json:"storeId,omitempty"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time,omitempty"`
	VisitID     *int64 `json:"visitId,omitempty"`
}
