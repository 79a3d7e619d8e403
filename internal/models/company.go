package models

import "time"

// ChatTool identifies an outbound chat integration.
type ChatTool string

const (
	ChatToolSlack     ChatTool = "slack"
	ChatToolLine      ChatTool = "line"
	ChatToolLineWorks ChatTool = "lineworks"
)

// Company is a tenant. Subjects, users and chat integrations belong to one.
type Company struct {
	ID        string    `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name string `gorm:"not null" json:"name"`

	// Relationships
	Integrations []ChatToolIntegration `gorm:"foreignKey:CompanyID" json:"integrations"`
}

// ChatToolIntegration routes a company's notifications to one chat tool channel.
type ChatToolIntegration struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CompanyID string   `gorm:"not null;index" json:"company_id"`
	ChatTool  ChatTool `gorm:"not null" json:"chat_tool"`
	Channel   string   `gorm:"not null" json:"channel"`
	Enabled   bool     `gorm:"not null" json:"enabled"`

	// CredentialRef names the config entry holding this integration's token.
	CredentialRef string `json:"credential_ref"`
}
