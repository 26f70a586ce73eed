package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Indicators API",
        "description": "School administration records and academic KPIs",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": ["http"],
    "securityDefinitions": {"BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}},
    "tags": [
        {"name": "Ops"},
        {"name": "KPI"},
        {"name": "GradeLevels"},
        {"name": "Subjects"},
        {"name": "AcademicPeriods"},
        {"name": "Teachers"},
        {"name": "Students"},
        {"name": "Guardians"},
        {"name": "Courses"},
        {"name": "Enrollments"},
        {"name": "GuardianLinks"},
        {"name": "Assessments"},
        {"name": "Scores"},
        {"name": "Attendance"}
    ],
    "paths": {
        "/health": {"get": {"summary": "Liveness probe", "tags": ["Ops"], "responses": {"200": {"description": "OK"}}}},
        "/ready": {
            "get": {
                "summary": "Database readiness probe",
                "tags": ["Ops"],
                "responses": {"200": {"description": "OK"}, "503": {"description": "Database unavailable"}}
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "tags": ["Ops"],
                "produces": ["text/plain"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/metrics/summary": {
            "get": {
                "summary": "Aggregated request, cache and database timings",
                "tags": ["Ops"],
                "produces": ["application/json"],
                "parameters": [],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/grade-levels": {
            "get": {
                "summary": "List grade levels",
                "tags": ["GradeLevels"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "name": "search",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Free text search"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Page number"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Page size"
                    }
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "summary": "Create grade level",
                "tags": ["GradeLevels"],
                "produces": ["application/json"],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {
                        "description": "Referenced record not found",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {
                        "description": "Student not enrolled",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            }
        },
        "/api/v1/grade-levels/{id}": {
            "get": {
                "summary": "Get grade level",
                "tags": ["GradeLevels"],
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "summary": "Update grade level",
                "tags": ["GradeLevels"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {
                        "description": "Referenced record not found",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {
                        "description": "Student not enrolled",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            },
            "delete": {
                "summary": "Delete grade level and its owned records",
                "tags": ["GradeLevels"],
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/subjects": {
            "get": {
                "summary": "List subjects",
                "tags": ["Subjects"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "name": "search",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Free text search"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Page number"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Page size"
                    }
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "summary": "Create subject",
                "tags": ["Subjects"],
                "produces": ["application/json"],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {
                        "description": "Referenced record not found",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {
                        "description": "Student not enrolled",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            }
        },
        "/api/v1/subjects/{id}": {
            "get": {
                "summary": "Get subject",
                "tags": ["Subjects"],
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "summary": "Update subject",
                "tags": ["Subjects"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {
                        "description": "Referenced record not found",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {
                        "description": "Student not enrolled",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            },
            "delete": {
                "summary": "Delete subject and its owned records",
                "tags": ["Subjects"],
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/academic-periods": {
            "get": {
                "summary": "List academic periods",
                "tags": ["AcademicPeriods"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "name": "search",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Free text search"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Page number"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Page size"
                    },
                    {
                        "name": "active",
                        "in": "query",
                        "type": "boolean",
                        "required": false,
                        "description": "Active flag"
                    }
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "summary": "Create academic period",
                "tags": ["AcademicPeriods"],
                "produces": ["application/json"],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {
                        "description": "Referenced record not found",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {
                        "description": "Student not enrolled",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            }
        },
        "/api/v1/academic-periods/{id}": {
            "get": {
                "summary": "Get academic period",
                "tags": ["AcademicPeriods"],
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "summary": "Update academic period",
                "tags": ["AcademicPeriods"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {
                        "description": "Referenced record not found",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {
                        "description": "Student not enrolled",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            },
            "delete": {
                "summary": "Delete academic period and its owned records",
                "tags": ["AcademicPeriods"],
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/teachers": {
            "get": {
                "summary": "List teachers",
                "tags": ["Teachers"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "name": "search",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Free text search"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Page number"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Page size"
                    },
                    {
                        "name": "active",
                        "in": "query",
                        "type": "boolean",
                        "required": false,
                        "description": "Active flag"
                    }
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "summary": "Create teacher",
                "tags": ["Teachers"],
                "produces": ["application/json"],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {
                        "description": "Referenced record not found",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {
                        "description": "Student not enrolled",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            }
        },
        "/api/v1/teachers/{id}": {
            "get": {
                "summary": "Get teacher",
                "tags": ["Teachers"],
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "summary": "Update teacher",
                "tags": ["Teachers"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {
                        "description": "Referenced record not found",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {
                        "description": "Student not enrolled",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            },
            "delete": {
                "summary": "Delete teacher and its owned records",
                "tags": ["Teachers"],
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students": {
            "get": {
                "summary": "List students",
                "tags": ["Students"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "name": "search",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Free text search"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Page number"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Page size"
                    },
                    {
                        "name": "courseId",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Course ID"
                    },
                    {
                        "name": "active",
                        "in": "query",
                        "type": "boolean",
                        "required": false,
                        "description": "Active flag"
                    }
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "summary": "Create student",
                "tags": ["Students"],
                "produces": ["application/json"],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {
                        "description": "Referenced record not found",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {
                        "description": "Student not enrolled",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            }
        },
        "/api/v1/students/{id}": {
            "get": {
                "summary": "Get student",
                "tags": ["Students"],
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "summary": "Update student",
                "tags": ["Students"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {
                        "description": "Referenced record not found",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {
                        "description": "Student not enrolled",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            },
            "delete": {
                "summary": "Delete student and its owned records",
                "tags": ["Students"],
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/guardians": {
            "get": {
                "summary": "List guardians",
                "tags": ["Guardians"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "name": "search",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Free text search"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Page number"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Page size"
                    },
                    {
                        "name": "studentId",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Student ID"
                    },
                    {
                        "name": "relationship",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Relationship"
                    }
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "summary": "Create guardian",
                "tags": ["Guardians"],
                "produces": ["application/json"],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {
                        "description": "Referenced record not found",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {
                        "description": "Student not enrolled",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            }
        },
        "/api/v1/guardians/{id}": {
            "get": {
                "summary": "Get guardian",
                "tags": ["Guardians"],
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "summary": "Update guardian",
                "tags": ["Guardians"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {
                        "description": "Referenced record not found",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {
                        "description": "Student not enrolled",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            },
            "delete": {
                "summary": "Delete guardian and its owned records",
                "tags": ["Guardians"],
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/courses": {
            "get": {
                "summary": "List courses",
                "tags": ["Courses"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "name": "search",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Free text search"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Page number"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Page size"
                    },
                    {
                        "name": "gradeLevelId",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "gradeLevelId"
                    },
                    {
                        "name": "subjectId",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "subjectId"
                    },
                    {
                        "name": "teacherId",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "teacherId"
                    },
                    {
                        "name": "periodId",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "periodId"
                    }
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "summary": "Create course",
                "tags": ["Courses"],
                "produces": ["application/json"],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {
                        "description": "Referenced record not found",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {
                        "description": "Student not enrolled",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            }
        },
        "/api/v1/courses/{id}": {
            "get": {
                "summary": "Get course",
                "tags": ["Courses"],
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "summary": "Update course",
                "tags": ["Courses"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {
                        "description": "Referenced record not found",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {
                        "description": "Student not enrolled",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            },
            "delete": {
                "summary": "Delete course and its owned records",
                "tags": ["Courses"],
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/enrollments": {
            "get": {
                "summary": "List enrollments",
                "tags": ["Enrollments"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "name": "search",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Free text search"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Page number"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Page size"
                    },
                    {
                        "name": "studentId",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Student ID"
                    },
                    {
                        "name": "courseId",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Course ID"
                    },
                    {
                        "name": "active",
                        "in": "query",
                        "type": "boolean",
                        "required": false,
                        "description": "Active flag"
                    }
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "summary": "Create enrollment",
                "tags": ["Enrollments"],
                "produces": ["application/json"],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {
                        "description": "Referenced record not found",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {
                        "description": "Student not enrolled",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            }
        },
        "/api/v1/enrollments/{id}": {
            "get": {
                "summary": "Get enrollment",
                "tags": ["Enrollments"],
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "summary": "Update enrollment",
                "tags": ["Enrollments"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {
                        "description": "Referenced record not found",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {
                        "description": "Student not enrolled",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            },
            "delete": {
                "summary": "Delete enrollment and its owned records",
                "tags": ["Enrollments"],
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/guardian-links": {
            "get": {
                "summary": "List guardian links",
                "tags": ["GuardianLinks"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "name": "search",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Free text search"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Page number"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Page size"
                    },
                    {
                        "name": "studentId",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Student ID"
                    },
                    {
                        "name": "guardianId",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Guardian ID"
                    },
                    {
                        "name": "active",
                        "in": "query",
                        "type": "boolean",
                        "required": false,
                        "description": "Active flag"
                    }
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "summary": "Create guardian link",
                "tags": ["GuardianLinks"],
                "produces": ["application/json"],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {
                        "description": "Referenced record not found",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {
                        "description": "Student not enrolled",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            }
        },
        "/api/v1/guardian-links/{id}": {
            "get": {
                "summary": "Get guardian link",
                "tags": ["GuardianLinks"],
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "summary": "Update guardian link",
                "tags": ["GuardianLinks"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {
                        "description": "Referenced record not found",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {
                        "description": "Student not enrolled",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            },
            "delete": {
                "summary": "Delete guardian link and its owned records",
                "tags": ["GuardianLinks"],
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/assessments": {
            "get": {
                "summary": "List assessments",
                "tags": ["Assessments"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "name": "search",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Free text search"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Page number"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Page size"
                    },
                    {
                        "name": "courseId",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Course ID"
                    },
                    {
                        "name": "type",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Assessment type"
                    },
                    {
                        "name": "from",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "YYYY-MM-DD"
                    },
                    {
                        "name": "to",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "YYYY-MM-DD"
                    }
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "summary": "Create assessment",
                "tags": ["Assessments"],
                "produces": ["application/json"],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {
                        "description": "Referenced record not found",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {
                        "description": "Student not enrolled",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            }
        },
        "/api/v1/assessments/{id}": {
            "get": {
                "summary": "Get assessment",
                "tags": ["Assessments"],
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "summary": "Update assessment",
                "tags": ["Assessments"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {
                        "description": "Referenced record not found",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {
                        "description": "Student not enrolled",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            },
            "delete": {
                "summary": "Delete assessment and its owned records",
                "tags": ["Assessments"],
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/scores": {
            "get": {
                "summary": "List scores",
                "tags": ["Scores"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "name": "search",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Free text search"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Page number"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Page size"
                    },
                    {
                        "name": "assessmentId",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Assessment ID"
                    },
                    {
                        "name": "studentId",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Student ID"
                    },
                    {
                        "name": "courseId",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Course ID"
                    }
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "summary": "Create score",
                "tags": ["Scores"],
                "produces": ["application/json"],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {
                        "description": "Referenced record not found",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {
                        "description": "Student not enrolled",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            }
        },
        "/api/v1/scores/{id}": {
            "get": {
                "summary": "Get score",
                "tags": ["Scores"],
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "summary": "Update score",
                "tags": ["Scores"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {
                        "description": "Referenced record not found",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {
                        "description": "Student not enrolled",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            },
            "delete": {
                "summary": "Delete score and its owned records",
                "tags": ["Scores"],
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/attendance": {
            "get": {
                "summary": "List attendance records",
                "tags": ["Attendance"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "name": "search",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Free text search"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Page number"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Page size"
                    },
                    {
                        "name": "studentId",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Student ID"
                    },
                    {
                        "name": "courseId",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Course ID"
                    },
                    {
                        "name": "status",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Status"
                    },
                    {
                        "name": "date",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "YYYY-MM-DD"
                    }
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "summary": "Create attendance record",
                "tags": ["Attendance"],
                "produces": ["application/json"],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {
                        "description": "Referenced record not found",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {
                        "description": "Student not enrolled",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            }
        },
        "/api/v1/attendance/{id}": {
            "get": {
                "summary": "Get attendance record",
                "tags": ["Attendance"],
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "summary": "Update attendance record",
                "tags": ["Attendance"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {
                        "description": "Referenced record not found",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {
                        "description": "Student not enrolled",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            },
            "delete": {
                "summary": "Delete attendance record and its owned records",
                "tags": ["Attendance"],
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/with-averages": {
            "get": {
                "summary": "Students with their average and score count",
                "tags": ["Students"],
                "produces": ["application/json"],
                "parameters": [],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/courses/with-statistics": {
            "get": {
                "summary": "Courses with averages and assessment counts",
                "tags": ["Courses"],
                "produces": ["application/json"],
                "parameters": [],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/kpi/summary": {
            "get": {
                "summary": "Headline counts and general average",
                "tags": ["KPI"],
                "produces": ["application/json"],
                "parameters": [],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/kpi/at-risk": {
            "get": {
                "summary": "Students at academic risk",
                "tags": ["KPI"],
                "produces": ["application/json"],
                "parameters": [],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/kpi/course-averages": {
            "get": {
                "summary": "Average score per course with assessments",
                "tags": ["KPI"],
                "produces": ["application/json"],
                "parameters": [],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/kpi/courses/{id}/average": {
            "get": {
                "summary": "Average score of one course",
                "tags": ["KPI"],
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/kpi/course-absenteeism": {
            "get": {
                "summary": "Absenteeism per course",
                "tags": ["KPI"],
                "produces": ["application/json"],
                "parameters": [],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/kpi/courses/{id}/absenteeism": {
            "get": {
                "summary": "Absenteeism of one course",
                "tags": ["KPI"],
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/kpi/grade-distribution": {
            "get": {
                "summary": "Score counts per grade bucket",
                "tags": ["KPI"],
                "produces": ["application/json"],
                "parameters": [],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/kpi/pass-rate": {
            "get": {
                "summary": "Share of passing scores",
                "tags": ["KPI"],
                "produces": ["application/json"],
                "parameters": [],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/kpi/trends/scores": {
            "get": {
                "summary": "Monthly average score",
                "tags": ["KPI"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "name": "since",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "YYYY-MM-DD"
                    }
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/kpi/trends/absenteeism": {
            "get": {
                "summary": "Monthly absenteeism",
                "tags": ["KPI"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "name": "since",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "YYYY-MM-DD"
                    }
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/kpi/top-students": {
            "get": {
                "summary": "Best averages among students with enough scores",
                "tags": ["KPI"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Number of students"
                    },
                    {
                        "name": "minScores",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Minimum number of scores, 0 for any"
                    }
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/kpi/teacher-ranking": {
            "get": {
                "summary": "Teachers ranked by the average of their courses",
                "tags": ["KPI"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Number of teachers"
                    }
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/kpi/attendance/today": {
            "get": {
                "summary": "Attendance status counts for a day",
                "tags": ["KPI"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "name": "date",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "YYYY-MM-DD"
                    }
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/kpi/dashboard": {
            "get": {
                "summary": "Every indicator in one payload",
                "tags": ["KPI"],
                "produces": ["application/json"],
                "parameters": [],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/kpi/at-risk/export": {
            "get": {
                "summary": "Download the at-risk report",
                "tags": ["KPI"],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "csv or pdf"
                    }
                ],
                "responses": {
                    "200": {"description": "Report file", "schema": {"type": "file"}},
                    "400": {"description": "Unknown format"}
                }
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "field": {"type": "string"}
            }
        },
        "ResponseEnvelope": {
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

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
