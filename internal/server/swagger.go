package server

//go:generate swag init -g internal/server/server.go -o docs/swagger

// @title FolioGrade API
// @version 0.1
// @description Interactive documentation for the portfolio grading API surface.
// @contact.name FolioGrade Maintainers
// @contact.url https://github.com/raysh454/foliograde
// @BasePath /
