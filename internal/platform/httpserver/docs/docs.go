// Package docs holds the generated swagger description served at /swagger.
// Regenerate with `swag init` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/v1/publications": {
            "get": {
                "summary": "List publications",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "summary": "List an article for exchange",
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        },
        "/v1/publications/{publication_id}": {
            "get": {
                "summary": "Get a publication",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/v1/publications/{publication_id}/offers": {
            "get": {
                "summary": "List offers on a publication",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "summary": "Submit an offer",
                "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}
            }
        },
        "/v1/publications/{publication_id}/offers/{offer_id}/accept": {
            "post": {
                "summary": "Accept an offer and auto-reject competitors",
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "409": {"description": "Conflict"}}
            }
        },
        "/v1/publications/{publication_id}/offers/{offer_id}/reject": {
            "post": {
                "summary": "Reject an offer",
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "409": {"description": "Conflict"}}
            }
        },
        "/v1/publications/{publication_id}/close": {
            "post": {
                "summary": "Close a negotiation",
                "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}
            }
        },
        "/v1/publications/{publication_id}/cancel": {
            "post": {
                "summary": "Cancel a negotiation and relist",
                "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}
            }
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "trueque negotiation api",
	Description:      "Publication and offer negotiation lifecycle for the trueque exchange marketplace.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
