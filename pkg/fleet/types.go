package fleet

// File is a fleet seed file: vehicles, their documents and maintenance history.
type File struct {
	Vehicles    []Vehicle     `yaml:"vehicles" validate:"dive"`
	Documents   []Document    `yaml:"documents" validate:"dive"`
	Maintenance []Maintenance `yaml:"maintenance" validate:"dive"`
}

// Vehicle is a vehicle entry in a seed file.
type Vehicle struct {
	ID                 string `yaml:"id"`
	UserID             string `yaml:"user_id" validate:"required"`
	RegistrationNumber string `yaml:"registration_number" validate:"required"`
	VehicleType        string `yaml:"vehicle_type" validate:"required,oneof=truck van car bus other"`
	Make               string `yaml:"make"`
	Model              string `yaml:"model"`
	Year               int    `yaml:"year" validate:"omitempty,gte=1900,lte=2100"`
	VIN                string `yaml:"vin" validate:"omitempty,len=17"`
	LicensePlate       string `yaml:"license_plate"`
	Status             string `yaml:"status" validate:"omitempty,oneof=active maintenance inactive"`
}

// Document is a document entry in a seed file. Dates use YYYY-MM-DD.
type Document struct {
	ID           string `yaml:"id"`
	UserID       string `yaml:"user_id" validate:"required"`
	VehicleID    string `yaml:"vehicle_id"`
	Title        string `yaml:"title" validate:"required"`
	DocumentType string `yaml:"document_type" validate:"required,oneof=license insurance registration permit other"`
	ExpiryDate   string `yaml:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
	Status       string `yaml:"status" validate:"omitempty,oneof=active expiring_soon expired"`
}

// Maintenance is a maintenance record entry in a seed file.
type Maintenance struct {
	ID              string   `yaml:"id"`
	UserID          string   `yaml:"user_id" validate:"required"`
	VehicleID       string   `yaml:"vehicle_id" validate:"required"`
	MaintenanceType string   `yaml:"maintenance_type" validate:"required,oneof=oil_change inspection repair service other"`
	Description     string   `yaml:"description"`
	Cost            *float64 `yaml:"cost" validate:"omitempty,gte=0"`
	Status          string   `yaml:"status" validate:"omitempty,oneof=scheduled pending completed"`
	NextDueDate     string   `yaml:"next_due_date" validate:"omitempty,datetime=2006-01-02"`
}

// Result counts the records written by Apply.
type Result struct {
	Vehicles    int `json:"vehicles"`
	Documents   int `json:"documents"`
	Maintenance int `json:"maintenance"`
}
