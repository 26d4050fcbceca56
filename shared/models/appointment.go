package models

import "time"

// AppointmentStatus represents the state of a store appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "Scheduled"
	AppointmentStatusCompleted AppointmentStatus = "Completed"
	AppointmentStatusCancelled AppointmentStatus = "Cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "No Show"
)

// AppointmentType is the kind of service booked
type AppointmentType string

const (
	AppointmentTypeEyeExam    AppointmentType = "Eye Exam"
	AppointmentTypeStyling    AppointmentType = "Styling"
	AppointmentTypeAdjustment AppointmentType = "Adjustment"
	AppointmentTypeOther      AppointmentType = "Other"
)

var appointmentStatuses = []AppointmentStatus{
	AppointmentStatusScheduled,
	AppointmentStatusCompleted,
	AppointmentStatusCancelled,
	AppointmentStatusNoShow,
}

var appointmentTypes = []AppointmentType{
	AppointmentTypeEyeExam,
	AppointmentTypeStyling,
	AppointmentTypeAdjustment,
	AppointmentTypeOther,
}

func ParseAppointmentStatus(s string) (AppointmentStatus, bool) {
	for _, st := range appointmentStatuses {
		if matchStatus(string(st), s) {
			return st, true
		}
	}
	return "", false
}

// ParseAppointmentType returns AppointmentTypeOther for an empty value.
func ParseAppointmentType(s string) (AppointmentType, bool) {
	if s == "" {
		return AppointmentTypeOther, true
	}
	for _, t := range appointmentTypes {
		if matchStatus(string(t), s) {
			return t, true
		}
	}
	return "", false
}

// Appointment is an eye exam, styling or adjustment session at a dealer
type Appointment struct {
	ID              uint              `json:"id" gorm:"primaryKey"`
	DealerID        uint              `json:"dealerId" gorm:"not null;index"`
	CustomerName    string            `json:"customerName" gorm:"type:varchar(255)"`
	AppointmentDate time.Time         `json:"appointmentDate" gorm:"not null"`
	Type            AppointmentType   `json:"type" gorm:"type:varchar(50);default:Other"`
	Status          AppointmentStatus `json:"status" gorm:"type:varchar(50);default:Scheduled"`
	Notes           string            `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

func (Appointment) TableName() string {
	return "appointments"
}

func (a *Appointment) TenantID() uint {
	return a.DealerID
}
