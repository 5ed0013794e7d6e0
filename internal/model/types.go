package model

import (
	"encoding/json"
	"sort"
	"time"
)

// NurtureDays is the length of the nurture script.
const NurtureDays = 7

// QuestionsPerDay is the fixed number of questions asked on every nurture day.
const QuestionsPerDay = 9

// CustomerStatus is derived from a customer's completed days.
type CustomerStatus string

const (
	StatusActive    CustomerStatus = "active"
	StatusCompleted CustomerStatus = "completed"
	// StatusPaused is accepted on decode but never produced.
	StatusPaused CustomerStatus = "paused"
)

// Customer is a person moving through the nurture script.
// Progress, status and current day are computed from CompletedDays.
type Customer struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	OwnerID       string    `json:"ownerId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	LastUpdated   time.Time `json:"lastUpdated"`
	CompletedDays []int     `json:"completedDays"`

	IsPotential    bool    `json:"isPotential,omitempty"`
	PotentialScore *int    `json:"potentialScore,omitempty"`
	PotentialNotes *string `json:"potentialNotes,omitempty"`

	HasDeposited  bool     `json:"hasDeposited,omitempty"`
	DepositAmount *float64 `json:"depositAmount,omitempty"`
	DepositNotes  *string  `json:"depositNotes,omitempty"`
}

// HasDay reports whether day is in the completed set.
func (c Customer) HasDay(day int) bool {
	for _, d := range c.CompletedDays {
		if d == day {
			return true
		}
	}
	return false
}

// TotalProgress is the completed share of the script as a percentage.
func (c Customer) TotalProgress() float64 {
	return float64(len(c.CompletedDays)) / NurtureDays * 100
}

// Status is completed exactly when every day is done.
func (c Customer) Status() CustomerStatus {
	if len(c.CompletedDays) == NurtureDays {
		return StatusCompleted
	}
	return StatusActive
}

// CurrentDay is one past the highest completed day, capped at the last day.
func (c Customer) CurrentDay() int {
	highest := 0
	for _, d := range c.CompletedDays {
		if d > highest {
			highest = d
		}
	}
	if highest+1 > NurtureDays {
		return NurtureDays
	}
	return highest + 1
}

type customerAlias Customer

type customerView struct {
	customerAlias
	CurrentDay    int            `json:"currentDay"`
	TotalProgress float64        `json:"totalProgress"`
	Status        CustomerStatus `json:"status"`
}

// MarshalJSON emits the derived fields next to the stored ones.
func (c Customer) MarshalJSON() ([]byte, error) {
	days := append([]int(nil), c.CompletedDays...)
	sort.Ints(days)
	if days == nil {
		days = []int{}
	}
	a := customerAlias(c)
	a.CompletedDays = days
	return json.Marshal(customerView{
		customerAlias: a,
		CurrentDay:    c.CurrentDay(),
		TotalProgress: c.TotalProgress(),
		Status:        c.Status(),
	})
}

// UnmarshalJSON drops any stored derived fields; they are recomputed on read.
// CompletedDays is normalised so the derived fields always count distinct valid days.
func (c *Customer) UnmarshalJSON(b []byte) error {
	var a customerAlias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	a.CompletedDays = NormalizeDays(a.CompletedDays)
	*c = Customer(a)
	return nil
}

// NormalizeDays returns the distinct days of in that fall in [1, NurtureDays], ascending.
func NormalizeDays(in []int) []int {
	seen := make(map[int]bool, len(in))
	out := make([]int, 0, len(in))
	for _, d := range in {
		if d < 1 || d > NurtureDays || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

// Answers maps "day_<D>_q_<Q>" keys to free-text answers for one customer.
type Answers map[string]string

// PersonalityType is a coarse classification shared by summaries and profiles.
type PersonalityType string

const (
	PersonalityEmotional PersonalityType = "emotional"
	PersonalityPractical PersonalityType = "practical"
	PersonalityMixed     PersonalityType = "mixed"
)

// Valid reports whether p is one of the known classifications.
func (p PersonalityType) Valid() bool {
	switch p {
	case PersonalityEmotional, PersonalityPractical, PersonalityMixed:
		return true
	}
	return false
}

// Summary is a staff-written overview of a customer.
type Summary struct {
	CustomerID      string          `json:"customerId"`
	PersonalityType PersonalityType `json:"personalityType"`
	Goals           string          `json:"goals"`
	Background      string          `json:"background"`
	Strengths       string          `json:"strengths"`
	Concerns        string          `json:"concerns"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type NotePriority string

const (
	PriorityLow    NotePriority = "low"
	PriorityMedium NotePriority = "medium"
	PriorityHigh   NotePriority = "high"
)

type NoteType string

const (
	NoteReminder NoteType = "reminder"
	NoteWarning  NoteType = "warning"
	NoteInfo     NoteType = "info"
)

// ManagerNote is one entry of a customer's append-only note list.
type ManagerNote struct {
	ID        string       `json:"id"`
	Content   string       `json:"content"`
	Author    string       `json:"createdBy"`
	Priority  NotePriority `json:"priority"`
	Type      NoteType     `json:"type"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Profile collects engagement notes for a customer.
type Profile struct {
	CustomerID         string          `json:"customerId"`
	PersonalityType    PersonalityType `json:"personalityType"`
	Motivations        []string        `json:"motivationFactors"`
	Concerns           []string        `json:"concerns"`
	CommunicationStyle string          `json:"communicationStyle"`
	EngagementPlan     string          `json:"engagementPlan"`
	Notes              string          `json:"analysisNotes"`
	UpdatedAt          time.Time       `json:"lastUpdated"`
}

type Role string

const (
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// User is a staff account.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	GroupID   *string   `json:"groupId,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// Group is a team of staff led by a manager.
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ManagerID   string    `json:"managerId"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DeviceSession is a registered device fingerprint for a logged-in account.
type DeviceSession struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	DeviceInfo   string    `json:"deviceInfo"`
	Browser      string    `json:"browser"`
	OS           string    `json:"os"`
	LoginTime    time.Time `json:"loginTime"`
	LastActivity time.Time `json:"lastActivity"`
}

// Document is the minimal shape the role gate needs from shared documents.
type Document struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedBy string `json:"createdBy"`
}

// CustomerStats aggregates counters shown on dashboards.
type CustomerStats struct {
	Total           int     `json:"total"`
	Active          int     `json:"active"`
	Completed       int     `json:"completed"`
	Potential       int     `json:"potential"`
	Deposited       int     `json:"deposited"`
	AverageProgress float64 `json:"averageProgress"`
	DepositTotal    float64 `json:"depositTotal"`
}
