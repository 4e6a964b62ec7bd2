package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Classora API",
        "description": "Class and course administration backend",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Authentication", "description": "Login, token refresh and session management"},
        {"name": "Users", "description": "Staff account management"},
        {"name": "Students", "description": "Student registry and student-scoped payments"},
        {"name": "Guardians", "description": "Guardian registry"},
        {"name": "Subjects", "description": "Subject catalog"},
        {"name": "Courses", "description": "Course catalog, topics and enrollment toggles"},
        {"name": "Enrollments", "description": "Student course enrollments"},
        {"name": "Events", "description": "Scheduled class events"},
        {"name": "Halls", "description": "Hall registry"},
        {"name": "Payments", "description": "Admission and course payments"},
        {"name": "Roles", "description": "Roles and endpoint authorization sets"},
        {"name": "Apis", "description": "Authorizable endpoint catalog"},
        {"name": "AuditLogs", "description": "Request audit trail"},
        {"name": "Reports", "description": "CSV/PDF exports with signed downloads"}
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
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "Token pair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string", "description": "field:value;field2:value2"},
                    {"name": "searchJoin", "in": "query", "type": "string", "enum": ["and", "or"]},
                    {"name": "orderBy", "in": "query", "type": "string"},
                    {"name": "sortedBy", "in": "query", "type": "string", "enum": ["asc", "desc"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Paginated students", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Create student with login account",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Validation failure"}
                }
            }
        },
        "/payments/students/course": {
            "post": {
                "tags": ["Payments"],
                "summary": "Record monthly course payment",
                "description": "The amount is the sum of the selected enrollments' course fees.",
                "responses": {
                    "201": {"description": "Receipt"},
                    "400": {"description": "Validation failure"}
                }
            }
        },
        "/roles/{id}/authorized": {
            "get": {
                "tags": ["Roles"],
                "summary": "List the role's authorized endpoints",
                "responses": {
                    "200": {"description": "Authorization set"}
                }
            },
            "post": {
                "tags": ["Roles"],
                "summary": "Replace the role's authorized endpoints",
                "responses": {
                    "204": {"description": "Replaced"}
                }
            }
        },
        "/reports/download": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a generated report via signed token",
                "parameters": [
                    {"name": "token", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "page": {"type": "integer"},
                "page_size": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "validation": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"$ref": "#/definitions/Pagination"}
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
