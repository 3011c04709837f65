// Package docs 保存 /swagger 路由使用的 OpenAPI 文档模板
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API支持",
            "email": "support@stride.local"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {"tags": ["系统"], "summary": "健康检查", "responses": {"200": {"description": "OK"}}}
        },
        "/profile": {
            "get": {"security": [{"ApiKeyAuth": []}], "tags": ["资料"], "summary": "获取个人资料", "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"ApiKeyAuth": []}], "tags": ["资料"], "summary": "更新个人资料", "responses": {"200": {"description": "OK"}}}
        },
        "/goals": {
            "get": {"security": [{"ApiKeyAuth": []}], "tags": ["目标"], "summary": "目标列表", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"ApiKeyAuth": []}], "tags": ["目标"], "summary": "创建储蓄目标", "responses": {"201": {"description": "Created"}}}
        },
        "/goals/{id}": {
            "get": {"security": [{"ApiKeyAuth": []}], "tags": ["目标"], "summary": "目标详情", "responses": {"200": {"description": "OK"}}}
        },
        "/goals/{id}/activate": {
            "post": {"security": [{"ApiKeyAuth": []}], "tags": ["目标"], "summary": "激活目标", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}
        },
        "/goals/{id}/pause": {
            "post": {"security": [{"ApiKeyAuth": []}], "tags": ["目标"], "summary": "暂停目标", "responses": {"200": {"description": "OK"}}}
        },
        "/goals/{id}/complete": {
            "post": {"security": [{"ApiKeyAuth": []}], "tags": ["目标"], "summary": "完成目标", "responses": {"200": {"description": "OK"}}}
        },
        "/goals/{id}/progress": {
            "post": {"security": [{"ApiKeyAuth": []}], "tags": ["目标"], "summary": "记录存款进度", "responses": {"200": {"description": "OK"}}}
        },
        "/goals/{id}/retroplan": {
            "post": {"security": [{"ApiKeyAuth": []}], "tags": ["计划"], "summary": "生成倒排计划", "responses": {"200": {"description": "OK"}}}
        },
        "/energy": {
            "get": {"security": [{"ApiKeyAuth": []}], "tags": ["能量"], "summary": "能量历史", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"ApiKeyAuth": []}], "tags": ["能量"], "summary": "记录能量", "responses": {"201": {"description": "Created"}}}
        },
        "/energy/assessment": {
            "get": {"security": [{"ApiKeyAuth": []}], "tags": ["能量"], "summary": "能量透支与回升评估", "responses": {"200": {"description": "OK"}}}
        },
        "/academic-events": {
            "get": {"security": [{"ApiKeyAuth": []}], "tags": ["日程"], "summary": "学业事件列表", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"ApiKeyAuth": []}], "tags": ["日程"], "summary": "创建学业事件", "responses": {"201": {"description": "Created"}}}
        },
        "/academic-events/{id}": {
            "delete": {"security": [{"ApiKeyAuth": []}], "tags": ["日程"], "summary": "删除学业事件", "responses": {"200": {"description": "OK"}}}
        },
        "/commitments": {
            "get": {"security": [{"ApiKeyAuth": []}], "tags": ["日程"], "summary": "固定投入列表", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"ApiKeyAuth": []}], "tags": ["日程"], "summary": "创建固定投入", "responses": {"201": {"description": "Created"}}}
        },
        "/commitments/{id}": {
            "put": {"security": [{"ApiKeyAuth": []}], "tags": ["日程"], "summary": "更新固定投入", "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"ApiKeyAuth": []}], "tags": ["日程"], "summary": "删除固定投入", "responses": {"200": {"description": "OK"}}}
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Stride 储蓄计划 API",
	Description:      "面向学生的储蓄目标规划服务：按每周容量倒排计划，识别能量透支与状态回升。",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
