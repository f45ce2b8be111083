package models

import "github.com/shopspring/decimal"

type LineItemRequest struct {
	Product  string          `json:"producto"`
	Quantity int             `json:"cantidad"`
	Price    decimal.Decimal `json:"precio"`
}

type CreateOrderRequest struct {
	CustomerName    string            `json:"nombre_cliente" binding:"required"`
	CustomerPhone   string            `json:"customer_phone,omitempty"`
	CustomerAddress string            `json:"customer_address,omitempty"`
	DeliveryDate    string            `json:"fecha_entrega" binding:"required"`
	PaymentMethod   PaymentMethod     `json:"metodo_pago" binding:"required"`
	Paid            bool              `json:"esta_pagado"`
	Products        []LineItemRequest `json:"productos"`
	Notes           string            `json:"notas,omitempty"`
}

type SetStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
}

type ProgressRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
	Notes  string      `json:"notes"`
}

type UpdateProfileRequest struct {
	FullName string `json:"full_name" binding:"required"`
}

type RegisterRequest struct {
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	FullName        string `json:"full_name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
