package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "AFIT LMS Edge Server",
        "description": "Classroom edge node: RFID card enrollment, reference data sync, terminal attendance bridge",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Enrollment", "description": "RFID card enrollment workflow"},
        {"name": "Sync", "description": "Reference data pushed from the central store"},
        {"name": "Reports", "description": "Attendance sheet downloads"}
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
                    "200": {"description": "Ready"}
                }
            }
        },
        "/cs/enroll": {
            "post": {
                "tags": ["Enrollment"],
                "summary": "Start a card enrollment session",
                "description": "Returns immediately with a session id and the WebSocket URL that streams enrollment progress.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BeginEnrollmentRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/ws/enrollment_status/{session_id}": {
            "get": {
                "tags": ["Enrollment"],
                "summary": "Observe enrollment progress",
                "description": "WebSocket upgrade. The server pushes status, completed and failed envelopes; client frames are ignored.",
                "parameters": [
                    {"name": "session_id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "101": {"description": "Switching Protocols"}
                }
            }
        },
        "/cs/sync/lecturers": {
            "get": {
                "tags": ["Sync"],
                "summary": "List mirrored lecturers",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Sync"],
                "summary": "Sync one lecturer",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SyncLecturerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already synced", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Sync"],
                "summary": "Clear the lecturer mirror",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/cs/sync/students": {
            "get": {
                "tags": ["Sync"],
                "summary": "List mirrored students",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Sync"],
                "summary": "Sync one student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SyncStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already synced", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Sync"],
                "summary": "Clear the student mirror",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/cs/sync/courses": {
            "get": {
                "tags": ["Sync"],
                "summary": "List mirrored courses",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Sync"],
                "summary": "Sync one course",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SyncCourseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already synced", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cs/reports/attendance/{code}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download the attendance sheet for a course",
                "produces": ["application/pdf", "text/csv"],
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["pdf", "csv"], "default": "pdf"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Unknown course", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "BeginEnrollmentRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "unique_id": {"type": "string"}
            },
            "required": ["username", "unique_id"]
        },
        "SyncLecturerRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "sch_id": {"type": "string"},
                "rfid_uid": {"type": "string"}
            },
            "required": ["id", "name", "sch_id"]
        },
        "SyncStudentRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "sch_id": {"type": "string"},
                "rfid_uid": {"type": "string"}
            },
            "required": ["id", "name", "sch_id"]
        },
        "SyncCourseRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "course_id": {"type": "integer"},
                "title": {"type": "string"}
            },
            "required": ["code", "course_id", "title"]
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
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
