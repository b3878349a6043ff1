package model

import "time"

// MainPortfolioName is the default portfolio of every user. It cannot be deleted.
const MainPortfolioName = "Main"

// DevicePortfolioName is the portfolio mirrored to low-memory display devices.
const DevicePortfolioName = "Arduino"

// UserPortfolio stores a whole portfolio as one JSON array keyed by
// (user_id, portfolio_name). Writes always replace the blob.
type UserPortfolio struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex:ux_user_portfolio,priority:1" json:"user_id"`
	PortfolioName string    `gorm:"size:100;not null;uniqueIndex:ux_user_portfolio,priority:2" json:"portfolio_name"`
	PortfolioData string    `gorm:"type:jsonb;not null" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (UserPortfolio) TableName() string {
	return "user_portfolios"
}

// Positions decodes the stored blob, dropping malformed elements.
func (u UserPortfolio) Positions() []Position {
	return DecodePositions([]byte(u.PortfolioData))
}

// PortfolioInfo is one row of a user's portfolio listing.
type PortfolioInfo struct {
	PortfolioName string    `json:"portfolio_name"`
	PositionCount int       `json:"position_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}
