// Package docs holds the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "email": "support@example.com"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.HealthResponse"}}}
            }
        },
        "/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.RegisterRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.AuthResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.AuthResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Refresh session",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.RefreshRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.AuthResponse"}}}
            }
        },
        "/auth/forgot-password": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Request a password reset",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.ForgotPasswordRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.MessageResponse"}}}
            }
        },
        "/auth/resend-verification": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Resend the verification email",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.ResendVerificationRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.MessageResponse"}}}
            }
        },
        "/auth/reset-password": {
            "post": {
                "security": [{"Bearer": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Set a new password",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.ResetPasswordRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.MessageResponse"}}}
            }
        },
        "/auth/logout": {
            "post": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log out",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.MessageResponse"}}}
            }
        },
        "/me": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["profiles"],
                "summary": "Current profile",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Profile"}}}
            },
            "patch": {
                "security": [{"Bearer": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["profiles"],
                "summary": "Update current profile",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.UpdateProfileRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Profile"}}}
            }
        },
        "/me/avatar": {
            "post": {
                "security": [{"Bearer": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["profiles"],
                "summary": "Upload avatar",
                "parameters": [{"type": "file", "in": "formData", "name": "avatar", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.AvatarResponse"}}}
            }
        },
        "/me/stats": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["profiles"],
                "summary": "Worker statistics",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.WorkerStats"}}}
            }
        },
        "/profiles": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["profiles"],
                "summary": "List profiles",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ProfileListResponse"}}}
            }
        },
        "/orders": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "List orders",
                "parameters": [{"type": "string", "in": "query", "name": "status"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.OrderListResponse"}}}
            },
            "post": {
                "security": [{"Bearer": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Create an order",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.CreateOrderRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Order"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/orders/stream": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["text/event-stream"],
                "tags": ["orders"],
                "summary": "Live order feed",
                "parameters": [{"type": "string", "in": "query", "name": "access_token"}],
                "responses": {"200": {"description": "snapshot event", "schema": {"$ref": "#/definitions/models.OrderListResponse"}}}
            }
        },
        "/orders/available": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["worker"],
                "summary": "Orders available to claim",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.OrderListResponse"}}}
            }
        },
        "/orders/mine": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["worker"],
                "summary": "Orders assigned to the caller",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.OrderListResponse"}}}
            }
        },
        "/orders/{order_id}": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Get an order",
                "parameters": [{"type": "string", "in": "path", "name": "order_id", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Order"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/orders/{order_id}/status": {
            "patch": {
                "security": [{"Bearer": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Override order status",
                "parameters": [
                    {"type": "string", "in": "path", "name": "order_id", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.SetStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Order"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/orders/{order_id}/claim": {
            "post": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["worker"],
                "summary": "Claim an order",
                "parameters": [{"type": "string", "in": "path", "name": "order_id", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Order"}},
                    "409": {"description": "already assigned or not pending", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/orders/{order_id}/release": {
            "post": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["worker"],
                "summary": "Release an order",
                "parameters": [{"type": "string", "in": "path", "name": "order_id", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Order"}},
                    "409": {"description": "not assigned to caller", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/orders/{order_id}/progress": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Order progress history",
                "parameters": [{"type": "string", "in": "path", "name": "order_id", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ProgressListResponse"}}}
            },
            "post": {
                "security": [{"Bearer": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["worker"],
                "summary": "Report progress",
                "parameters": [
                    {"type": "string", "in": "path", "name": "order_id", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.ProgressRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.ProgressResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}, "message": {"type": "string"}}
        },
        "models.HealthResponse": {
            "type": "object",
            "properties": {"status": {"type": "string"}, "database": {"type": "string"}}
        },
        "models.MessageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "models.AvatarResponse": {
            "type": "object",
            "properties": {"avatar_url": {"type": "string"}}
        },
        "models.AuthResponse": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "email": {"type": "string"},
                "access_token": {"type": "string"},
                "refresh_token": {"type": "string"},
                "token_type": {"type": "string"},
                "expires_in": {"type": "integer"},
                "expires_at": {"type": "integer"}
            }
        },
        "models.RegisterRequest": {
            "type": "object",
            "required": ["email", "password", "confirm_password", "full_name"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "confirm_password": {"type": "string"},
                "full_name": {"type": "string"}
            }
        },
        "models.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "models.RefreshRequest": {
            "type": "object",
            "required": ["refresh_token"],
            "properties": {"refresh_token": {"type": "string"}}
        },
        "models.ForgotPasswordRequest": {
            "type": "object",
            "required": ["email"],
            "properties": {"email": {"type": "string"}}
        },
        "models.ResendVerificationRequest": {
            "type": "object",
            "required": ["email"],
            "properties": {"email": {"type": "string"}}
        },
        "models.ResetPasswordRequest": {
            "type": "object",
            "required": ["password", "confirm_password"],
            "properties": {"password": {"type": "string"}, "confirm_password": {"type": "string"}}
        },
        "models.UpdateProfileRequest": {
            "type": "object",
            "required": ["full_name"],
            "properties": {"full_name": {"type": "string"}}
        },
        "models.Profile": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "role": {"type": "string", "enum": ["admin", "worker"]},
                "avatar_url": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "models.ProfileListResponse": {
            "type": "object",
            "properties": {"profiles": {"type": "array", "items": {"$ref": "#/definitions/models.Profile"}}}
        },
        "models.ProfileRef": {
            "type": "object",
            "properties": {"full_name": {"type": "string"}, "email": {"type": "string"}}
        },
        "models.WorkerStats": {
            "type": "object",
            "properties": {
                "total_assigned": {"type": "integer"},
                "completed": {"type": "integer"},
                "in_progress": {"type": "integer"},
                "total_updates": {"type": "integer"},
                "completion_rate": {"type": "integer"}
            }
        },
        "models.LineItem": {
            "type": "object",
            "properties": {
                "producto": {"type": "string"},
                "cantidad": {"type": "integer"},
                "precio": {"type": "number"}
            }
        },
        "models.CreateOrderRequest": {
            "type": "object",
            "required": ["nombre_cliente", "fecha_entrega", "metodo_pago"],
            "properties": {
                "nombre_cliente": {"type": "string"},
                "customer_phone": {"type": "string"},
                "customer_address": {"type": "string"},
                "fecha_entrega": {"type": "string", "example": "2026-01-31"},
                "metodo_pago": {"type": "string", "enum": ["efectivo", "credito", "dolares", "cheque", "transferencia"]},
                "esta_pagado": {"type": "boolean"},
                "productos": {"type": "array", "items": {"$ref": "#/definitions/models.LineItem"}},
                "notas": {"type": "string"}
            }
        },
        "models.Order": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "nombre_cliente": {"type": "string"},
                "customer_phone": {"type": "string"},
                "customer_address": {"type": "string"},
                "lista_productos": {"type": "array", "items": {"$ref": "#/definitions/models.LineItem"}},
                "fecha_entrega": {"type": "string"},
                "esta_pagado": {"type": "boolean"},
                "metodo_pago": {"type": "string"},
                "monto_total": {"type": "number"},
                "status": {"type": "string", "enum": ["pending", "in_progress", "completed", "delivered", "cancelled"]},
                "notas": {"type": "string"},
                "created_by": {"type": "string"},
                "assigned_to": {"type": "string"},
                "assigned_at": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"},
                "creator": {"$ref": "#/definitions/models.ProfileRef"},
                "assignee": {"$ref": "#/definitions/models.ProfileRef"}
            }
        },
        "models.OrderListResponse": {
            "type": "object",
            "properties": {"orders": {"type": "array", "items": {"$ref": "#/definitions/models.Order"}}}
        },
        "models.SetStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {"status": {"type": "string"}}
        },
        "models.ProgressRequest": {
            "type": "object",
            "required": ["status", "notes"],
            "properties": {"status": {"type": "string"}, "notes": {"type": "string"}}
        },
        "models.ProgressEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "order_id": {"type": "string"},
                "worker_id": {"type": "string"},
                "status": {"type": "string"},
                "notes": {"type": "string"},
                "created_at": {"type": "string"},
                "worker": {"$ref": "#/definitions/models.ProfileRef"}
            }
        },
        "models.ProgressListResponse": {
            "type": "object",
            "properties": {"entries": {"type": "array", "items": {"$ref": "#/definitions/models.ProgressEntry"}}}
        },
        "models.ProgressResponse": {
            "type": "object",
            "properties": {
                "order": {"$ref": "#/definitions/models.Order"},
                "entry": {"$ref": "#/definitions/models.ProgressEntry"}
            }
        }
    },
    "securityDefinitions": {
        "Bearer": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Order Desk Backend API",
	Description:      "Order desk API: admins create orders, workers claim them and report progress, and every change streams live to connected clients.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
