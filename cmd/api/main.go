package main

// @title Property Listing API
// @version 1.0
// @description Property listings with image uploads and budget filtering.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	Execute()
}
