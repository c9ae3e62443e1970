// Package swagger holds the OpenAPI document served under /docs.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Availability", "description": "Weekly windows and daily slot grids of courts and instructors"},
        {"name": "Bookings", "description": "Court bookings and personal sessions"},
        {"name": "ClassOccurrences", "description": "Dated sessions expanded from class schedules"},
        {"name": "ClassEnrollments", "description": "Seats in class occurrences"},
        {"name": "Notifications", "description": "In-app notifications"}
    ],
    "paths": {
        "/availability/{type}/{id}": {
            "get": {
                "tags": ["Availability"],
                "summary": "Daily slots of a court or instructor",
                "parameters": [
                    {"$ref": "#/parameters/ResourceType"},
                    {"$ref": "#/parameters/ResourceID"},
                    {"name": "date", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "slot", "in": "query", "type": "integer", "description": "Slot size in minutes"}
                ],
                "responses": {
                    "200": {"$ref": "#/responses/OK"},
                    "400": {"$ref": "#/responses/Error"},
                    "404": {"$ref": "#/responses/Error"}
                }
            }
        },
        "/availability/{type}/{id}/windows": {
            "get": {
                "tags": ["Availability"],
                "summary": "Weekly windows of a resource",
                "parameters": [
                    {"$ref": "#/parameters/ResourceType"},
                    {"$ref": "#/parameters/ResourceID"}
                ],
                "responses": {"200": {"$ref": "#/responses/OK"}}
            },
            "put": {
                "tags": ["Availability"],
                "summary": "Create or replace the window of one weekday (admin)",
                "parameters": [
                    {"$ref": "#/parameters/ResourceType"},
                    {"$ref": "#/parameters/ResourceID"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetWindowRequest"}}
                ],
                "responses": {
                    "200": {"$ref": "#/responses/OK"},
                    "400": {"$ref": "#/responses/Error"},
                    "403": {"$ref": "#/responses/Error"}
                }
            }
        },
        "/bookings/check-availability": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Check whether a booking could be placed",
                "parameters": [{"$ref": "#/parameters/BookingPayload"}],
                "responses": {"200": {"$ref": "#/responses/OK"}}
            }
        },
        "/bookings": {
            "get": {
                "tags": ["Bookings"],
                "summary": "List bookings; non-admins only see their own",
                "parameters": [
                    {"name": "kind", "in": "query", "type": "string", "enum": ["court", "personal"]},
                    {"name": "status", "in": "query", "type": "string", "enum": ["pending", "confirmed", "cancelled"]},
                    {"name": "courtId", "in": "query", "type": "string"},
                    {"name": "instructorId", "in": "query", "type": "string"},
                    {"name": "ownerId", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"$ref": "#/parameters/Page"},
                    {"$ref": "#/parameters/PageSize"}
                ],
                "responses": {"200": {"$ref": "#/responses/OK"}}
            },
            "post": {
                "tags": ["Bookings"],
                "summary": "Book a court or a personal session",
                "parameters": [{"$ref": "#/parameters/BookingPayload"}],
                "responses": {
                    "201": {"$ref": "#/responses/OK"},
                    "400": {"$ref": "#/responses/Error"},
                    "409": {"$ref": "#/responses/Error"},
                    "422": {"$ref": "#/responses/Error"}
                }
            }
        },
        "/bookings/me": {
            "get": {
                "tags": ["Bookings"],
                "summary": "Bookings of the caller",
                "parameters": [
                    {"$ref": "#/parameters/Page"},
                    {"$ref": "#/parameters/PageSize"}
                ],
                "responses": {"200": {"$ref": "#/responses/OK"}}
            }
        },
        "/bookings/{id}": {
            "get": {
                "tags": ["Bookings"],
                "summary": "Get a booking",
                "parameters": [{"$ref": "#/parameters/ID"}],
                "responses": {
                    "200": {"$ref": "#/responses/OK"},
                    "404": {"$ref": "#/responses/Error"}
                }
            },
            "patch": {
                "tags": ["Bookings"],
                "summary": "Reschedule a booking",
                "parameters": [
                    {"$ref": "#/parameters/ID"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RescheduleBookingRequest"}}
                ],
                "responses": {
                    "200": {"$ref": "#/responses/OK"},
                    "409": {"$ref": "#/responses/Error"},
                    "422": {"$ref": "#/responses/Error"}
                }
            }
        },
        "/bookings/{id}/cancel": {
            "patch": {
                "tags": ["Bookings"],
                "summary": "Cancel a booking and its open charge",
                "parameters": [
                    {"$ref": "#/parameters/ID"},
                    {"$ref": "#/parameters/CancelPayload"}
                ],
                "responses": {
                    "200": {"$ref": "#/responses/OK"},
                    "422": {"$ref": "#/responses/Error"}
                }
            }
        },
        "/bookings/{id}/confirm": {
            "patch": {
                "tags": ["Bookings"],
                "summary": "Confirm a pending booking (admin)",
                "parameters": [{"$ref": "#/parameters/ID"}],
                "responses": {
                    "200": {"$ref": "#/responses/OK"},
                    "409": {"$ref": "#/responses/Error"}
                }
            }
        },
        "/class-occurrences/generate": {
            "post": {
                "tags": ["ClassOccurrences"],
                "summary": "Expand a class schedule over a date range (admin)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateOccurrencesRequest"}}
                ],
                "responses": {
                    "201": {"$ref": "#/responses/OK"},
                    "409": {"$ref": "#/responses/Error"},
                    "422": {"$ref": "#/responses/Error"}
                }
            }
        },
        "/class-occurrences": {
            "get": {
                "tags": ["ClassOccurrences"],
                "summary": "List occurrences with seat usage",
                "parameters": [
                    {"name": "classId", "in": "query", "type": "string"},
                    {"name": "instructorId", "in": "query", "type": "string"},
                    {"name": "courtId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["scheduled", "confirmed", "cancelled"]},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"$ref": "#/parameters/Page"},
                    {"$ref": "#/parameters/PageSize"}
                ],
                "responses": {"200": {"$ref": "#/responses/OK"}}
            }
        },
        "/class-occurrences/{id}/enrollments": {
            "get": {
                "tags": ["ClassOccurrences"],
                "summary": "Roster of an occurrence",
                "parameters": [{"$ref": "#/parameters/ID"}],
                "responses": {"200": {"$ref": "#/responses/OK"}}
            }
        },
        "/class-occurrences/{id}/cancel": {
            "patch": {
                "tags": ["ClassOccurrences"],
                "summary": "Cancel an occurrence with its enrollments and charges (admin)",
                "parameters": [
                    {"$ref": "#/parameters/ID"},
                    {"$ref": "#/parameters/CancelPayload"}
                ],
                "responses": {
                    "200": {"$ref": "#/responses/OK"},
                    "422": {"$ref": "#/responses/Error"}
                }
            }
        },
        "/class-occurrences/{id}/confirm": {
            "patch": {
                "tags": ["ClassOccurrences"],
                "summary": "Confirm a scheduled occurrence (admin)",
                "parameters": [{"$ref": "#/parameters/ID"}],
                "responses": {
                    "200": {"$ref": "#/responses/OK"},
                    "409": {"$ref": "#/responses/Error"}
                }
            }
        },
        "/class-enrollments": {
            "post": {
                "tags": ["ClassEnrollments"],
                "summary": "Enroll in an occurrence",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollRequest"}}
                ],
                "responses": {
                    "201": {"$ref": "#/responses/OK"},
                    "409": {"$ref": "#/responses/Error"},
                    "422": {"$ref": "#/responses/Error"}
                }
            }
        },
        "/class-enrollments/me": {
            "get": {
                "tags": ["ClassEnrollments"],
                "summary": "Enrollments of the caller",
                "parameters": [{"name": "upcoming", "in": "query", "type": "boolean"}],
                "responses": {"200": {"$ref": "#/responses/OK"}}
            }
        },
        "/class-enrollments/{id}": {
            "delete": {
                "tags": ["ClassEnrollments"],
                "summary": "Release a seat",
                "parameters": [{"$ref": "#/parameters/ID"}],
                "responses": {
                    "200": {"$ref": "#/responses/OK"},
                    "422": {"$ref": "#/responses/Error"}
                }
            }
        },
        "/notifications/me": {
            "get": {
                "tags": ["Notifications"],
                "summary": "Latest notifications of the caller",
                "parameters": [{"name": "limit", "in": "query", "type": "integer"}],
                "responses": {"200": {"$ref": "#/responses/OK"}}
            }
        }
    },
    "parameters": {
        "ID": {"name": "id", "in": "path", "required": true, "type": "string"},
        "ResourceType": {"name": "type", "in": "path", "required": true, "type": "string", "enum": ["court", "instructor"]},
        "ResourceID": {"name": "id", "in": "path", "required": true, "type": "string"},
        "Page": {"name": "page", "in": "query", "type": "integer"},
        "PageSize": {"name": "pageSize", "in": "query", "type": "integer", "maximum": 100},
        "BookingPayload": {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BookingRequest"}},
        "CancelPayload": {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/CancelRequest"}}
    },
    "responses": {
        "OK": {"description": "Success", "schema": {"$ref": "#/definitions/Envelope"}},
        "Error": {"description": "Failure", "schema": {"$ref": "#/definitions/Envelope"}}
    },
    "definitions": {
        "BookingRequest": {
            "type": "object",
            "required": ["kind", "start", "end"],
            "properties": {
                "kind": {"type": "string", "enum": ["court", "personal"]},
                "courtId": {"type": "string"},
                "instructorId": {"type": "string"},
                "ownerId": {"type": "string", "description": "Admins may book on behalf of a user"},
                "start": {"type": "string", "example": "2025-11-10T10:00:00"},
                "end": {"type": "string", "example": "2025-11-10T11:00:00"},
                "note": {"type": "string"}
            }
        },
        "RescheduleBookingRequest": {
            "type": "object",
            "required": ["start", "end"],
            "properties": {
                "start": {"type": "string"},
                "end": {"type": "string"},
                "courtId": {"type": "string"},
                "note": {"type": "string"}
            }
        },
        "CancelRequest": {
            "type": "object",
            "properties": {"force": {"type": "boolean"}}
        },
        "SetWindowRequest": {
            "type": "object",
            "required": ["dayOfWeek", "startTime", "endTime"],
            "properties": {
                "dayOfWeek": {"type": "integer", "minimum": 1, "maximum": 7, "description": "1 = Monday"},
                "startTime": {"type": "string", "example": "08:00"},
                "endTime": {"type": "string", "example": "12:00"}
            }
        },
        "GenerateOccurrencesRequest": {
            "type": "object",
            "required": ["classId", "periodStart", "periodEnd"],
            "properties": {
                "classId": {"type": "string"},
                "periodStart": {"type": "string", "format": "date"},
                "periodEnd": {"type": "string", "format": "date"}
            }
        },
        "EnrollRequest": {
            "type": "object",
            "required": ["occurrenceId"],
            "properties": {
                "occurrenceId": {"type": "string"},
                "userId": {"type": "string", "description": "Admins may enroll another user"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "Envelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "Sports Facility API",
	Description:      "Court bookings, personal sessions and group classes for a sports facility.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
