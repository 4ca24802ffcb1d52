// Package docs registers the API's OpenAPI document with swag
// keep paths and schemas in step with the route annotations in each module's http package
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
  "openapi": "3.1.0",
  "info": {
    "title": "{{.Title}}",
    "description": "{{escape .Description}}",
    "version": "{{.Version}}"
  },
  "paths": {
    "/inference/risk": {
      "post": {
        "tags": ["inference"],
        "summary": "Daily migraine risk with a credible interval",
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/DayInput"}}}},
        "responses": {
          "200": {"description": "ok", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/RiskOutput"}}}},
          "422": {"$ref": "#/components/responses/Unprocessable"},
          "503": {"$ref": "#/components/responses/NotReady"},
          "504": {"$ref": "#/components/responses/Timeout"}
        }
      }
    },
    "/inference/posteriors": {
      "post": {
        "tags": ["inference"],
        "summary": "Hourly latent state posteriors",
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/DayInput"}}}},
        "responses": {
          "200": {"description": "ok", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/PosteriorsOutput"}}}},
          "422": {"$ref": "#/components/responses/Unprocessable"},
          "503": {"$ref": "#/components/responses/NotReady"},
          "504": {"$ref": "#/components/responses/Timeout"}
        }
      }
    },
    "/policy/topk": {
      "post": {
        "tags": ["policy"],
        "summary": "Hours worth measuring, best first",
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/TopKInput"}}}},
        "responses": {
          "200": {"description": "ok", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/TopKOutput"}}}},
          "422": {"$ref": "#/components/responses/Unprocessable"},
          "503": {"$ref": "#/components/responses/NotReady"},
          "504": {"$ref": "#/components/responses/Timeout"}
        }
      }
    },
    "/model": {
      "get": {
        "tags": ["model"],
        "summary": "Installed model and engine settings",
        "responses": {
          "200": {"description": "ok"},
          "503": {"$ref": "#/components/responses/NotReady"}
        }
      }
    },
    "/model/reload": {
      "post": {
        "tags": ["model"],
        "summary": "Re-read the weights file and install it",
        "security": [{"BearerAuth": []}],
        "responses": {
          "200": {"description": "ok"},
          "401": {"description": "missing or invalid token"},
          "403": {"description": "token lacks the reload scope"}
        }
      }
    },
    "/audit/recent": {
      "get": {
        "tags": ["audit"],
        "summary": "Newest inference audit records, newest first",
        "parameters": [{"name": "limit", "in": "query", "schema": {"type": "integer"}, "description": "max rows (server caps it)"}],
        "responses": {
          "200": {"description": "ok"},
          "503": {"description": "audit store not configured"}
        }
      }
    },
    "/audit/lookup": {
      "get": {
        "tags": ["audit"],
        "summary": "Newest audit record for one request id",
        "parameters": [{"name": "request_id", "in": "query", "required": true, "schema": {"type": "string"}}],
        "responses": {
          "200": {"description": "ok"},
          "404": {"description": "no record for the request id"},
          "503": {"description": "audit store not configured"}
        }
      }
    },
    "/meta/health": {"get": {"tags": ["meta"], "summary": "Health check", "responses": {"200": {"description": "ok"}}}},
    "/meta/ready": {"get": {"tags": ["meta"], "summary": "Readiness probe, 503 until a model is installed", "responses": {"200": {"description": "ok"}, "503": {"$ref": "#/components/responses/NotReady"}}}},
    "/meta/version": {"get": {"tags": ["meta"], "summary": "Build and version info", "responses": {"200": {"description": "ok"}}}},
    "/meta/service": {"get": {"tags": ["meta"], "summary": "Service info and uptime", "responses": {"200": {"description": "ok"}}}}
  },
  "components": {
    "securitySchemes": {
      "BearerAuth": {"type": "http", "scheme": "bearer"}
    },
    "responses": {
      "Unprocessable": {"description": "feature matrix has the wrong shape or a parameter is out of range", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/ErrorResponse"}}}},
      "NotReady": {"description": "no model installed yet, retry later", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/ErrorResponse"}}}},
      "Timeout": {"description": "compute budget exceeded", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/ErrorResponse"}}}}
    },
    "schemas": {
      "DayInput": {
        "type": "object",
        "required": ["features"],
        "properties": {
          "request_id": {"type": "string", "example": "day-2026-10-19-u42"},
          "features": {"type": "array", "description": "24 hours by feature count, hour-major", "items": {"type": "array", "items": {"type": "number"}}},
          "timeout_ms": {"type": "integer", "minimum": 1, "maximum": 60000}
        }
      },
      "TopKInput": {
        "allOf": [
          {"$ref": "#/components/schemas/DayInput"},
          {"type": "object", "properties": {"k": {"type": "integer", "minimum": 1, "maximum": 24, "example": 3}}}
        ]
      },
      "Meta": {
        "type": "object",
        "properties": {
          "request_id": {"type": "string"},
          "model_version": {"type": "string", "example": "auracast-gru-1.0.0"},
          "digest": {"type": "string"},
          "produced_at": {"type": "string", "format": "date-time"}
        }
      },
      "RiskOutput": {
        "allOf": [
          {"$ref": "#/components/schemas/Meta"},
          {
            "type": "object",
            "properties": {
              "risk": {"type": "object", "properties": {"mean": {"type": "number"}, "lower": {"type": "number"}, "upper": {"type": "number"}}},
              "samples": {"type": "integer", "example": 512}
            }
          }
        ]
      },
      "PosteriorsOutput": {
        "allOf": [
          {"$ref": "#/components/schemas/Meta"},
          {
            "type": "object",
            "properties": {
              "latents": {"type": "array", "items": {"type": "string"}},
              "hours": {"type": "array", "items": {"type": "object", "properties": {
                "hour": {"type": "integer"},
                "mean": {"type": "object", "additionalProperties": {"type": "number"}},
                "std": {"type": "object", "additionalProperties": {"type": "number"}}
              }}}
            }
          }
        ]
      },
      "TopKOutput": {
        "allOf": [
          {"$ref": "#/components/schemas/Meta"},
          {
            "type": "object",
            "properties": {
              "k": {"type": "integer"},
              "hours": {"type": "array", "items": {"type": "object", "properties": {
                "hour": {"type": "integer"},
                "score": {"type": "number"},
                "entropy": {"type": "number"},
                "uncertainty": {"type": "number"},
                "sensitivity": {"type": "number"}
              }}}
            }
          }
        ]
      }
    }
  }
}`

// SwaggerInfo is the registered document, main may override Version before serving
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Title:            "auracast API",
	Description:      "Migraine risk inference and measurement scheduling",
	InfoInstanceName: "api",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
