// Package shop models the subset of the Shopware store that the Silvasoft
// sync reads and writes: products, categories, customers, addresses, orders
// and their line items.
//
// The store owns these entities. The sync only writes back two things:
//   - stock levels and category links pulled from Silvasoft
//   - the remote invoice number recorded on an order once it was submitted
package shop
