package app

import (
	"context"

	"github.com/studiofit/membercore/internal/view"
)

// Customer returns the projected customer with the given id.
func (a *App) Customer(ctx context.Context, id string) (view.Customer, error) {
	return a.customerViews.GetCustomer(ctx, id)
}

// Customers lists projected customers, optionally including archived ones.
func (a *App) Customers(ctx context.Context, includeArchived bool) ([]view.Customer, error) {
	return a.customerViews.ListCustomers(ctx, includeArchived)
}

// Product returns the projected product with the given id.
func (a *App) Product(ctx context.Context, id string) (view.Product, error) {
	return a.productViews.GetProduct(ctx, id)
}

// Products lists projected products, optionally including archived ones.
func (a *App) Products(ctx context.Context, includeArchived bool) ([]view.Product, error) {
	return a.productViews.ListProducts(ctx, includeArchived)
}

// Contract returns the projected contract with the given id.
func (a *App) Contract(ctx context.Context, id string) (view.Contract, error) {
	return a.contractViews.GetContract(ctx, id)
}

// ContractsByStatus lists projected contracts in the given status.
func (a *App) ContractsByStatus(ctx context.Context, status view.ContractStatus) ([]view.Contract, error) {
	return a.contractViews.ListContractsByStatus(ctx, status)
}

// ContractsByCustomer lists projected contracts belonging to a customer.
func (a *App) ContractsByCustomer(ctx context.Context, customerID string) ([]view.Contract, error) {
	return a.contractViews.ListContractsByCustomer(ctx, customerID)
}

// Invoice returns the projected invoice with the given id.
func (a *App) Invoice(ctx context.Context, id string) (view.Invoice, error) {
	return a.invoiceViews.GetInvoice(ctx, id)
}

// InvoicesByStatus lists projected invoices in the given status.
func (a *App) InvoicesByStatus(ctx context.Context, status view.InvoiceStatus) ([]view.Invoice, error) {
	return a.invoiceViews.ListInvoicesByStatus(ctx, status)
}

// InvoicesByCustomer lists projected invoices billed to a customer.
func (a *App) InvoicesByCustomer(ctx context.Context, customerID string) ([]view.Invoice, error) {
	return a.invoiceViews.ListInvoicesByCustomer(ctx, customerID)
}
