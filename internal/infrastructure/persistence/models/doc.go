// Package models contains the GORM persistence models of the store tables.
// The models are separate from the shop domain entities so the domain stays
// free of ORM tags; every model has a ToDomain mapper.
//
// Structure:
// - base.go: BaseModel and the AutoMigrate list
// - catalog.go: products, categories and their link table
// - customer.go: customers and customer addresses
// - order.go: orders, order customers, order addresses and line items
package models
