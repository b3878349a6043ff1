package repository

import "errors"

var (
	ErrPortfolioNotFound = errors.New("portfolio not found")
	ErrPriceNotFound     = errors.New("no price data for symbol")
	ErrUserNotFound      = errors.New("user not found")
)
