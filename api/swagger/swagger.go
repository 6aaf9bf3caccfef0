package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Course Portal API",
        "description": "Students, coursework, weekly schedule and discussion board for one course",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Login, logout and the current identity"},
        {"name": "Resources", "description": "students, assignments, assignment_comments, resources, resource_comments, topics, replies, weeks, week_comments"},
        {"name": "Exports", "description": "Roster downloads"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unreachable", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "Metrics in exposition format"}
                }
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate",
                "description": "Student login by student id or e-mail, or the configured staff account",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token issued", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "Missing credentials", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/api/v1/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Revoke the current access token",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Logged out", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Not authenticated", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/api/v1/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current identity",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Identity", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Not authenticated", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/api/v1/exports/students": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export the student roster",
                "produces": ["text/csv", "application/pdf"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "format", "type": "string", "enum": ["csv", "pdf"], "description": "csv (default) or pdf"}
                ],
                "responses": {
                    "200": {"description": "File download", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Not authenticated", "schema": {"$ref": "#/definitions/Envelope"}},
                    "403": {"description": "Staff only", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/api/v1/{resource}": {
            "get": {
                "tags": ["Resources"],
                "summary": "List rows",
                "description": "Comment and reply lists require the parent id query parameter (assignment_id, resource_id, week_id, topic_id).",
                "parameters": [
                    {"$ref": "#/parameters/resource"},
                    {"in": "query", "name": "search", "type": "string", "description": "Case-insensitive substring search"},
                    {"in": "query", "name": "sort", "type": "string", "description": "Sort column; unknown values fall back to the default"},
                    {"in": "query", "name": "order", "type": "string", "enum": ["asc", "desc"]}
                ],
                "responses": {
                    "200": {"description": "Rows", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "Unknown resource or missing parent filter", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            },
            "post": {
                "tags": ["Resources"],
                "summary": "Create a row",
                "description": "With action=change_password on students, replaces a student's password instead.",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/resource"},
                    {"in": "query", "name": "action", "type": "string", "enum": ["change_password"]},
                    {"in": "body", "name": "payload", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Not authenticated", "schema": {"$ref": "#/definitions/Envelope"}},
                    "403": {"description": "Not permitted", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Parent not found", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/api/v1/{resource}/{id}": {
            "get": {
                "tags": ["Resources"],
                "summary": "Fetch one row",
                "parameters": [
                    {"$ref": "#/parameters/resource"},
                    {"$ref": "#/parameters/id"}
                ],
                "responses": {
                    "200": {"description": "Row", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            },
            "put": {
                "tags": ["Resources"],
                "summary": "Partially update a row",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/resource"},
                    {"$ref": "#/parameters/id"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "No fields or invalid field", "schema": {"$ref": "#/definitions/Envelope"}},
                    "403": {"description": "Not permitted", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            },
            "delete": {
                "tags": ["Resources"],
                "summary": "Delete a row and its children",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/resource"},
                    {"$ref": "#/parameters/id"}
                ],
                "responses": {
                    "200": {"description": "Deleted", "schema": {"$ref": "#/definitions/Envelope"}},
                    "403": {"description": "Not permitted", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        }
    },
    "parameters": {
        "resource": {"in": "path", "name": "resource", "required": true, "type": "string", "enum": ["students", "assignments", "assignment_comments", "resources", "resource_comments", "topics", "replies", "weeks", "week_comments"]},
        "id": {"in": "path", "name": "id", "required": true, "type": "string", "description": "Numeric id, or student_id for students"}
    },
    "definitions": {
        "Envelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {"type": "object"},
                "message": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
