// Package docs registers the admin API description with swag.
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
        "/version": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Version"],
                "summary": "Get TrustShield Version",
                "responses": {
                    "200": {
                        "description": "Version information",
                        "schema": {"$ref": "#/definitions/version.Info"}
                    }
                }
            }
        },
        "/api/v1/agent": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Agent"],
                "summary": "Get agent status",
                "responses": {
                    "200": {
                        "description": "Agent status",
                        "schema": {"$ref": "#/definitions/response.AgentOutput"}
                    },
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/api/v1/agent/hostnames": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Agent"],
                "summary": "List outbound hostnames",
                "responses": {
                    "200": {
                        "description": "Tracked hostnames",
                        "schema": {"$ref": "#/definitions/response.HostnamesOutput"}
                    }
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Agent"],
                "summary": "Clear outbound hostnames",
                "responses": {
                    "204": {"description": "Hostnames cleared"}
                }
            }
        },
        "/api/v1/agent/heartbeat": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Agent"],
                "summary": "Send a heartbeat now",
                "responses": {
                    "200": {
                        "description": "Reporting result",
                        "schema": {"$ref": "#/definitions/response.HeartbeatOutput"}
                    },
                    "502": {"description": "Reporting transport failed"}
                }
            }
        }
    },
    "definitions": {
        "version.Info": {
            "type": "object",
            "properties": {
                "library": {"type": "string"},
                "version": {"type": "string"},
                "commit": {"type": "string"},
                "go_version": {"type": "string"},
                "platform": {"type": "string"}
            }
        },
        "response.AgentOutput": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "blocking": {"type": "boolean"},
                "started": {"type": "boolean"},
                "info": {"type": "object"},
                "stats": {"type": "object"}
            }
        },
        "response.HostnamesOutput": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "hostnames": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "hostname": {"type": "string"},
                            "port": {"type": "integer"}
                        }
                    }
                }
            }
        },
        "response.HeartbeatOutput": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.4.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "TrustShield Admin API",
	Description:      "Status and control endpoints of the embedded protection agent.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
