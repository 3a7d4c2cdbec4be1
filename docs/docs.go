package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Exchange a username and password for an access token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "in": "body",
                        "name": "credentials",
                        "required": true,
                        "schema": {"$ref": "#/definitions/ports.LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/ports.AuthResponse"}
                    },
                    "400": {
                        "description": "Missing fields",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    },
                    "401": {
                        "description": "Invalid credentials",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    }
                }
            }
        },
        "/restaurants": {
            "get": {
                "tags": ["restaurants"],
                "summary": "List restaurants",
                "produces": ["application/json"],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {"$ref": "#/definitions/entities.Restaurant"}
                        }
                    }
                }
            },
            "post": {
                "tags": ["restaurants"],
                "summary": "Add a restaurant",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "in": "body",
                        "name": "restaurant",
                        "required": true,
                        "schema": {"$ref": "#/definitions/ports.CreateRestaurantRequest"}
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {"$ref": "#/definitions/entities.Restaurant"}
                    },
                    "400": {
                        "description": "Missing fields",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    }
                }
            }
        },
        "/restaurants/{id}": {
            "get": {
                "tags": ["restaurants"],
                "summary": "Get a restaurant with its reviews and images",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/entities.RestaurantDetail"}
                    },
                    "404": {
                        "description": "Restaurant not found",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    }
                }
            }
        },
        "/restaurants/{id}/reviews": {
            "get": {
                "tags": ["reviews"],
                "summary": "List reviews of a restaurant",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {"$ref": "#/definitions/entities.Review"}
                        }
                    },
                    "404": {
                        "description": "Restaurant not found",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    }
                }
            },
            "post": {
                "tags": ["reviews"],
                "summary": "Add a review",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "integer", "required": true},
                    {"in": "header", "name": "Authorization", "type": "string", "required": false, "description": "Bearer token; sets user_id"},
                    {
                        "in": "body",
                        "name": "review",
                        "required": true,
                        "schema": {"$ref": "#/definitions/http.ReviewRequest"}
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {"$ref": "#/definitions/entities.Review"}
                    },
                    "400": {
                        "description": "Missing fields",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    },
                    "401": {
                        "description": "Invalid bearer token",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    },
                    "404": {
                        "description": "Restaurant not found",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    }
                }
            }
        },
        "/restaurants/{id}/images": {
            "get": {
                "tags": ["images"],
                "summary": "List images of a restaurant",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {"$ref": "#/definitions/entities.Image"}
                        }
                    },
                    "404": {
                        "description": "Restaurant not found",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    }
                }
            },
            "post": {
                "tags": ["images"],
                "summary": "Upload a restaurant image",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "integer", "required": true},
                    {"in": "formData", "name": "file", "type": "file", "required": true}
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {"$ref": "#/definitions/entities.Image"}
                    },
                    "400": {
                        "description": "Not an image",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    },
                    "404": {
                        "description": "Restaurant not found",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    },
                    "413": {
                        "description": "Image too large",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    }
                }
            }
        },
        "/reviews": {
            "get": {
                "tags": ["reviews"],
                "summary": "List every review with its restaurant name",
                "produces": ["application/json"],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {"$ref": "#/definitions/entities.ReviewWithRestaurant"}
                        }
                    }
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["users"],
                "summary": "List users",
                "produces": ["application/json"],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {"$ref": "#/definitions/entities.User"}
                        }
                    }
                }
            },
            "post": {
                "tags": ["users"],
                "summary": "Create a user",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "in": "body",
                        "name": "user",
                        "required": true,
                        "schema": {"$ref": "#/definitions/ports.CreateUserRequest"}
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {"$ref": "#/definitions/entities.User"}
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    },
                    "409": {
                        "description": "Username taken",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    }
                }
            }
        }
    },
    "definitions": {
        "entities.Restaurant": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string", "example": "Gardens of Babylon"},
                "address": {"type": "string", "example": "Stabu iela 12"},
                "description": {"type": "string"}
            }
        },
        "entities.Review": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "user_id": {"type": "integer"},
                "restaurant_id": {"type": "integer"},
                "rating": {"description": "Any JSON scalar except null and the empty string, stored as submitted"},
                "comment": {"type": "string"}
            }
        },
        "entities.ReviewWithRestaurant": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "user_id": {"type": "integer"},
                "restaurant_id": {"type": "integer"},
                "rating": {},
                "comment": {"type": "string"},
                "restaurant": {"type": "string"}
            }
        },
        "entities.Image": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "restaurant_id": {"type": "integer"},
                "filename": {"type": "string"},
                "original_name": {"type": "string"},
                "content_type": {"type": "string"},
                "size": {"type": "integer"},
                "uploaded_at": {"type": "string", "format": "date-time"}
            }
        },
        "entities.RestaurantDetail": {
            "type": "object",
            "properties": {
                "restaurant": {"$ref": "#/definitions/entities.Restaurant"},
                "reviews": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/entities.Review"}
                },
                "images": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/entities.Image"}
                }
            }
        },
        "entities.User": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "ports.CreateRestaurantRequest": {
            "type": "object",
            "required": ["name", "address"],
            "properties": {
                "name": {"type": "string"},
                "address": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "ports.CreateUserRequest": {
            "type": "object",
            "required": ["username"],
            "properties": {
                "username": {"type": "string", "minLength": 3, "maxLength": 50},
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 8}
            }
        },
        "ports.LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "ports.AuthResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "token_type": {"type": "string", "example": "Bearer"},
                "expires_in": {"type": "integer"},
                "user": {"$ref": "#/definitions/entities.User"}
            }
        },
        "http.ReviewRequest": {
            "type": "object",
            "required": ["rating", "comment"],
            "properties": {
                "user_id": {"type": "integer"},
                "rating": {"example": "5"},
                "comment": {"type": "string"}
            }
        },
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "fields": {
                    "type": "array",
                    "items": {"type": "string"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:5000",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "Restaurant Reviews API",
	Description:      "Restaurants, reviews, users and images backed by a single JSON document",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
