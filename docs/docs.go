// Package docs registers the OpenAPI description served at /swagger.
// Regenerate with `swag init -g cmd/api/main.go` after changing handler annotations.
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
        "/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Login",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.loginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "429": {"description": "Too Many Requests", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/users": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "List users", "produces": ["application/json"],
                "parameters": [{"type": "integer", "name": "page", "in": "query"}, {"type": "integer", "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Create a user", "consumes": ["application/json"], "produces": ["application/json"],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}}
        },
        "/users/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Get a user", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Update a user", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Delete a user", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}, "409": {"description": "Conflict"}}}
        },
        "/clients": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["clients"], "summary": "List clients", "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"}, {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "string", "name": "startDate", "in": "query"}, {"type": "string", "name": "endDate", "in": "query"},
                    {"type": "string", "name": "createdStartDate", "in": "query"}, {"type": "string", "name": "createdEndDate", "in": "query"},
                    {"type": "string", "name": "cpf", "in": "query"}, {"type": "string", "name": "nome", "in": "query"},
                    {"type": "string", "name": "status", "in": "query"}, {"type": "string", "name": "banco", "in": "query"},
                    {"type": "string", "name": "telefone", "in": "query"}, {"type": "string", "name": "userId", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["clients"], "summary": "Create a client", "consumes": ["application/json"], "produces": ["application/json"],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/clients/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["clients"], "summary": "Get a client", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["clients"], "summary": "Update a client", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["clients"], "summary": "Delete a client", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden"}}}
        },
        "/contratos": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["contracts"], "summary": "List contracts", "parameters": [{"type": "integer", "name": "clientId", "in": "query"}], "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["contracts"], "summary": "Create a contract", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/contratos/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["contracts"], "summary": "Get a contract", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["contracts"], "summary": "Update a contract", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["contracts"], "summary": "Delete a contract", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden"}}}
        },
        "/history": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Client change history", "parameters": [{"type": "integer", "name": "clientId", "in": "query"}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/estatisticas": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Clients created per salesperson in a month",
                "parameters": [{"type": "integer", "name": "month", "in": "query", "required": true}, {"type": "integer", "name": "year", "in": "query", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/export": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Export clients as a spreadsheet",
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "responses": {"200": {"description": "OK", "schema": {"type": "file"}}, "403": {"description": "Forbidden"}}}
        }
    },
    "definitions": {
        "handler.loginRequest": {"type": "object", "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "handler.userResponse": {"type": "object", "properties": {
            "id": {"type": "integer"}, "email": {"type": "string"}, "role": {"type": "string"},
            "createdAt": {"type": "string"}, "updatedAt": {"type": "string"}}},
        "handler.loginResponse": {"type": "object", "properties": {
            "token": {"type": "string"}, "expiresAt": {"type": "string"},
            "user": {"$ref": "#/definitions/handler.userResponse"}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Sales back-office API",
	Description:      "Users, clients, contracts, audit history, statistics and spreadsheet export.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
