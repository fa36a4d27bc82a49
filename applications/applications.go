package applications

type Address struct {
	Village       string `json:"village"`
	PostOffice    string `json:"post_office"`
	PoliceStation string `json:"police_station"`
	District      string `json:"district"`
	PIN           string `json:"pin"`
}

// Form is the body of a new player registration.
type Form struct {
	Name                  string  `json:"name"`
	FatherName            string  `json:"father_name"`
	MotherName            string  `json:"mother_name"`
	GuardianName          string  `json:"guardian_name,omitempty"`
	DOB                   string  `json:"dob"`
	Age                   string  `json:"age"`
	Gender                string  `json:"gender"`
	Height                string  `json:"height"`
	Weight                string  `json:"weight"`
	AadharNumber          string  `json:"aadhar_number,omitempty"`
	Category              string  `json:"category"`
	MobileNumber          string  `json:"mobile_number"`
	AlternateMobileNumber string  `json:"alternate_mobile_number,omitempty"`
	Address               Address `json:"address"`
	CurrentAddress        Address `json:"current_address"`
	SchoolName            string  `json:"school_name"`
	CurrentClass          string  `json:"current_class"`
	PlayingPosition       string  `json:"playing_position"`
	MedicalIssues         string  `json:"medical_issues,omitempty"`
	ImageURL              string  `json:"image_url,omitempty"`
}

// Application is a stored registration. CreatedAt is kept as sent since the
// backend omits the zone offset.
type Application struct {
	ID                 int    `json:"id,omitempty"`
	RegistrationNumber string `json:"registration_number"`
	CreatedAt          string `json:"created_at,omitempty"`
	Form
}

// Page is one page of the application list.
type Page struct {
	Applications []Application `json:"applications"`
	Total        int           `json:"total"`
	Page         int           `json:"page"`
	Size         int           `json:"size"`
	Pages        int           `json:"pages"`
}

// Images are data URLs rendered on the printable view. Either may be absent.
type Images struct {
	Logo  *string `json:"logo"`
	Photo *string `json:"photo"`
}

type WithImages struct {
	Application Application `json:"application"`
	Images      Images      `json:"images"`
}

// PlayerName is the short form used by deposit pickers.
type PlayerName struct {
	ID                 int    `json:"id"`
	Name               string `json:"name"`
	RegistrationNumber string `json:"registration_number"`
}
