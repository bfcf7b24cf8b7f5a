// Package docs holds the OpenAPI description served at /swagger. It mirrors
// the swag annotations on the JSON handlers.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/auth/sign-in": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign in",
                "parameters": [
                    {"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.Credentials"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/forms.Outcome"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/forms.Outcome"}}
                }
            }
        },
        "/api/auth/sign-up": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign up",
                "parameters": [
                    {"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.Credentials"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/forms.Outcome"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/forms.Outcome"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/forms.Outcome"}}
                }
            }
        },
        "/api/auth/sign-out": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign out",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.signOutResponse"}}
                }
            }
        },
        "/api/me": {
            "get": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Signed-in identity",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Identity"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/api/pricing": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pricing"],
                "summary": "Pricing",
                "parameters": [
                    {"type": "string", "default": "USD", "description": "USD, GBP or EUR", "name": "currency", "in": "query"},
                    {"type": "string", "default": "monthly", "description": "monthly or annual", "name": "billing", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.pricingResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/api/session": {
            "get": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Current session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Snapshot"}}
                }
            }
        },
        "/api/waitlist": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["waitlist"],
                "summary": "Join the waiting list",
                "parameters": [
                    {"description": "Email", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.joinWaitlistRequest"}}
                ],
                "responses": {
                    "200": {"description": "already on the list", "schema": {"$ref": "#/definitions/handler.joinWaitlistResponse"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.joinWaitlistResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Credentials": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "domain.Identity": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "metadata": {"type": "object", "additionalProperties": true}
            }
        },
        "domain.Snapshot": {
            "type": "object",
            "properties": {
                "identity": {"$ref": "#/definitions/domain.Identity"},
                "status": {"type": "string", "enum": ["initializing", "resolved"]},
                "version": {"type": "integer"}
            }
        },
        "forms.Outcome": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "error": {"type": "string"},
                "sign_in_link": {"type": "boolean"},
                "redirect": {"type": "string"}
            }
        },
        "handler.errorBody": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "handler.signOutResponse": {
            "type": "object",
            "properties": {
                "redirect": {"type": "string"}
            }
        },
        "handler.joinWaitlistRequest": {
            "type": "object",
            "required": ["email"],
            "properties": {
                "email": {"type": "string"},
                "source": {"type": "string"}
            }
        },
        "handler.joinWaitlistResponse": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "already_joined": {"type": "boolean"}
            }
        },
        "handler.pricingResponse": {
            "type": "object",
            "properties": {
                "currency": {"type": "string"},
                "billing": {"type": "string"},
                "plans": {"type": "array", "items": {"$ref": "#/definitions/ports.PlanQuote"}}
            }
        },
        "ports.PlanQuote": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "features": {"type": "array", "items": {"type": "string"}},
                "popular": {"type": "boolean"},
                "currency": {"type": "string"},
                "symbol": {"type": "string"},
                "price": {"type": "integer"},
                "period": {"type": "string"},
                "yearly_savings": {"type": "integer"},
                "call_to_action": {"type": "string"},
                "href": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Haphazard site API",
	Description:      "Session, credential, pricing and waiting-list endpoints of the Haphazard site.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
