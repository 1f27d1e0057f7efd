// Package docs registers the OpenAPI description served under /swagger.
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
		"/health": {
			"get": {
				"tags": [
					"health"
				],
				"summary": "Liveness check",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/projects": {
			"get": {
				"tags": [
					"projects"
				],
				"summary": "List all projects",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					}
				}
			},
			"post": {
				"tags": [
					"projects"
				],
				"summary": "Create a new project",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.CreateProjectRequest"
						}
					}
				]
			}
		},
		"/projects/{id}": {
			"get": {
				"tags": [
					"projects"
				],
				"summary": "Get a project",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			},
			"put": {
				"tags": [
					"projects"
				],
				"summary": "Update a project",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.UpdateProjectRequest"
						}
					}
				]
			},
			"delete": {
				"tags": [
					"projects"
				],
				"summary": "Delete a project with its folders, videos, versions and comments",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/projects/{id}/folders": {
			"get": {
				"tags": [
					"folders"
				],
				"summary": "List the folders of a project",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			},
			"post": {
				"tags": [
					"folders"
				],
				"summary": "Create a folder",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.CreateFolderRequest"
						}
					}
				]
			}
		},
		"/projects/{id}/folders/{fid}": {
			"get": {
				"tags": [
					"folders"
				],
				"summary": "Get a folder",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "fid",
						"in": "path",
						"required": true
					}
				]
			},
			"put": {
				"tags": [
					"folders"
				],
				"summary": "Rename or move a folder",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "fid",
						"in": "path",
						"required": true
					},
					{
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.UpdateFolderRequest"
						}
					}
				]
			},
			"delete": {
				"tags": [
					"folders"
				],
				"summary": "Delete a folder with its subfolders, videos, versions and comments",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "fid",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/projects/{id}/folders/{fid}/videos": {
			"get": {
				"tags": [
					"videos"
				],
				"summary": "List the visible videos of a folder with their versions",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "fid",
						"in": "path",
						"required": true
					}
				]
			},
			"post": {
				"tags": [
					"videos"
				],
				"summary": "Upload a video into a folder",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "fid",
						"in": "path",
						"required": true
					}
				],
				"consumes": [
					"multipart/form-data"
				]
			}
		},
		"/projects/{id}/folders/{fid}/videos/{vid}": {
			"get": {
				"tags": [
					"videos"
				],
				"summary": "Get a video",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "fid",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "vid",
						"in": "path",
						"required": true
					}
				]
			},
			"put": {
				"tags": [
					"videos"
				],
				"summary": "Update video name or duration",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "fid",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "vid",
						"in": "path",
						"required": true
					},
					{
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.UpdateVideoRequest"
						}
					}
				]
			},
			"patch": {
				"tags": [
					"videos"
				],
				"summary": "Set the review status of a video",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "fid",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "vid",
						"in": "path",
						"required": true
					},
					{
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.UpdateVideoStatusRequest"
						}
					}
				]
			},
			"delete": {
				"tags": [
					"videos"
				],
				"summary": "Delete a video with its versions, comments and unshared files",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "fid",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "vid",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/projects/{id}/folders/{fid}/videos/{vid}/status": {
			"get": {
				"tags": [
					"videos"
				],
				"summary": "Poll whether the client has reported the video's metadata yet",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "fid",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "vid",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/projects/{id}/folders/{fid}/videos/{vid}/versions": {
			"get": {
				"tags": [
					"versions"
				],
				"summary": "List the versions of a video, newest first",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "fid",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "vid",
						"in": "path",
						"required": true
					}
				]
			},
			"post": {
				"tags": [
					"versions"
				],
				"summary": "Add a version to a video",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "fid",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "vid",
						"in": "path",
						"required": true
					}
				],
				"consumes": [
					"multipart/form-data",
					"application/json"
				]
			}
		},
		"/projects/{id}/folders/{fid}/videos/{vid}/comments": {
			"get": {
				"tags": [
					"comments"
				],
				"summary": "List a video's comments as threads",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "fid",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "vid",
						"in": "path",
						"required": true
					}
				]
			},
			"post": {
				"tags": [
					"comments"
				],
				"summary": "Comment on a video or reply to a comment",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "fid",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "vid",
						"in": "path",
						"required": true
					},
					{
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.CreateCommentRequest"
						}
					}
				]
			}
		},
		"/projects/{id}/folders/{fid}/videos/{vid}/comments/{cid}": {
			"put": {
				"tags": [
					"comments"
				],
				"summary": "Edit a comment's text or drawing, or mark it resolved",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "fid",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "vid",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "cid",
						"in": "path",
						"required": true
					},
					{
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.UpdateCommentRequest"
						}
					}
				]
			},
			"delete": {
				"tags": [
					"comments"
				],
				"summary": "Delete a comment and all of its replies",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "fid",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "vid",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "cid",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/projects/{id}/folders/{fid}/videos/{vid}/comments/{cid}/like": {
			"post": {
				"tags": [
					"comments"
				],
				"summary": "Toggle a like on a comment",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "fid",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "vid",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "cid",
						"in": "path",
						"required": true
					},
					{
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.LikeCommentRequest"
						}
					}
				]
			}
		},
		"/videos/{path}": {
			"get": {
				"tags": [
					"media"
				],
				"summary": "Stream a stored video file",
				"produces": [
					"video/mp4"
				],
				"parameters": [
					{
						"type": "string",
						"name": "path",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "Range",
						"in": "header"
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"206": {
						"description": "Partial Content"
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					},
					"416": {
						"description": "Range Not Satisfiable",
						"schema": {
							"$ref": "#/definitions/utils.ErrorResponse"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"utils.ErrorResponse": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string",
					"example": "error"
				},
				"error": {
					"type": "string"
				},
				"details": {
					"type": "object"
				}
			}
		},
		"handlers.CreateProjectRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"description": {
					"type": "string"
				}
			},
			"required": [
				"name"
			]
		},
		"handlers.UpdateProjectRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"description": {
					"type": "string"
				}
			}
		},
		"handlers.CreateFolderRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"parent_id": {
					"type": "string"
				}
			},
			"required": [
				"name"
			]
		},
		"handlers.UpdateFolderRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"parent_id": {
					"type": "string"
				}
			}
		},
		"handlers.UpdateVideoRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"duration": {
					"type": "number"
				}
			}
		},
		"handlers.UpdateVideoStatusRequest": {
			"type": "object",
			"properties": {
				"video_status": {
					"type": "string",
					"enum": [
						"no_status",
						"in_progress",
						"review",
						"approved",
						"rejected"
					]
				}
			},
			"required": [
				"video_status"
			]
		},
		"handlers.CreateCommentRequest": {
			"type": "object",
			"properties": {
				"parent_id": {
					"type": "string"
				},
				"user_name": {
					"type": "string"
				},
				"user_email": {
					"type": "string"
				},
				"text": {
					"type": "string"
				},
				"video_time": {
					"type": "number"
				},
				"drawing_data": {
					"type": "object"
				}
			}
		},
		"handlers.UpdateCommentRequest": {
			"type": "object",
			"properties": {
				"text": {
					"type": "string"
				},
				"drawing_data": {
					"type": "object"
				},
				"resolved": {
					"type": "boolean"
				}
			}
		},
		"handlers.LikeCommentRequest": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				}
			}
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Video Review API",
	Description:      "Projects, folders, videos, versions and timestamped comments for video review.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
