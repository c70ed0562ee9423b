// Package docs holds the OpenAPI description served under /swagger.
// Regenerate with: swag init -g cmd/gateway/main.go
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
        "/v1/session": {
            "get": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Current session",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionView"}}}
            }
        },
        "/v1/session/onboarding": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Complete onboarding",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.modeRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionView"}},
                    "400": {"description": "Bad Request"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/v1/session/mode": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Set user mode",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.modeRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionView"}},
                    "400": {"description": "Bad Request"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/v1/session/mode/toggle": {
            "post": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Toggle user mode",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionView"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/v1/session/logout": {
            "post": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Logout",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionView"}}}
            }
        },
        "/v1/session/events": {
            "get": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Session audit trail",
                "parameters": [{"type": "integer", "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Audit disabled"}}
            }
        },
        "/v1/navigate": {
            "get": {
                "produces": ["application/json"],
                "tags": ["navigation"],
                "summary": "Resolve a navigation",
                "parameters": [{"type": "string", "name": "path", "in": "query", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/v1/routes": {
            "get": {
                "produces": ["application/json"],
                "tags": ["navigation"],
                "summary": "Screen map",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.credentialsRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/v1/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.credentialsRequest"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        },
        "/v1/rates": {
            "get": {
                "produces": ["application/json"],
                "tags": ["rates"],
                "summary": "Exchange rates",
                "responses": {"200": {"description": "OK"}}
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["rates"],
                "summary": "Override exchange rates",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}}
            }
        },
        "/v1/rates/refresh": {
            "post": {
                "produces": ["application/json"],
                "tags": ["rates"],
                "summary": "Refresh exchange rates",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/dashboard": {
            "get": {
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Dashboard summary",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}}
            }
        },
        "/v1/api/{path}": {
            "get": {
                "tags": ["proxy"],
                "summary": "Backend pass-through",
                "parameters": [{"type": "string", "name": "path", "in": "path", "required": true}],
                "responses": {"200": {"description": "Backend response"}}
            }
        }
    },
    "definitions": {
        "domain.Session": {
            "type": "object",
            "properties": {
                "role": {"type": "string", "enum": ["OWNER", "MEMBER"]},
                "user_mode": {"type": "string", "enum": ["PERSONAL", "BUSINESS"]},
                "onboarding_complete": {"type": "boolean"}
            }
        },
        "handler.sessionView": {
            "type": "object",
            "properties": {
                "device_id": {"type": "string"},
                "token_present": {"type": "boolean"},
                "session": {"$ref": "#/definitions/domain.Session"},
                "is_owner": {"type": "boolean"},
                "is_member": {"type": "boolean"},
                "next": {"type": "string"}
            }
        },
        "handler.modeRequest": {
            "type": "object",
            "required": ["mode"],
            "properties": {"mode": {"type": "string", "example": "BUSINESS"}}
        },
        "handler.credentialsRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 6}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "XPLR Session Gateway",
	Description:      "Route authorization and session state for XPLR clients.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
