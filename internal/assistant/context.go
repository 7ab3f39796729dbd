package assistant

import (
	"fmt"
	"strings"
)

const systemInfo = `# Invoice Archive

## About
A web based archive of invoice PDFs for accountants. An accountant manages
several clients, uploads invoice PDFs per client, searches and filters them
and shares read-only links with clients.

## Roles
- Accountant: signs in and uses the archive
- Client: never signs in, only opens invoices through a shared link

## Features
1. Sign in through the identity provider, or continue in demo mode
2. Create and list clients (name and tax id)
3. Upload an invoice PDF for a client with its date and amount
4. List invoices, search by client name, tax id or invoice id, filter by date range
5. Preview and download PDFs
6. Share links that stay valid for 24 hours and are read-only
7. Storage usage is counted against the plan limit (1 GB by default)
8. Gift codes unlock a 7 day trial, once per account

## Pages
- / landing page, sign in or continue in demo mode
- /app dashboard with client count, invoice count and storage usage
- /app/clients client list and the new client form
- /app/invoices invoice list with search, date filter, preview and sharing
- /app/upload upload form (create a client first)
- /app/settings account and storage details
- /share/<token> shared invoice view

## Storage layout
invoices/<uid>/<clientId>/<yyyy>/<mm>/<invoiceId>.pdf

## Demo mode
Without a configured backend, or when the user picks demo mode, data is kept
in a local store on the server and never reaches the managed database.`

var pageContexts = map[string]string{
	"/":             "The user is on the landing page and can sign in or continue in demo mode.",
	"/app":          "The user is on the dashboard looking at summary statistics.",
	"/app/clients":  "The user is on the clients page and can add or browse clients.",
	"/app/invoices": "The user is on the invoices page and can search, filter, preview and share invoices.",
	"/app/upload":   "The user is on the upload page and can upload a new invoice PDF.",
	"/app/settings": "The user is on the settings page looking at account and storage details.",
}

// StaticContext is the part of the system prompt that never changes
func StaticContext() string {
	return systemInfo
}

// BuildContext describes where the user is and what state they are in
func BuildContext(page string, demo, signedIn bool) string {
	var b strings.Builder

	b.WriteString(systemInfo)
	b.WriteString("\n\n## Current state\n")

	pc, ok := pageContexts[page]
	if !ok {
		pc = fmt.Sprintf("The user is on %s.", page)
	}
	fmt.Fprintf(&b, "- Page: %s\n", pc)

	if demo {
		b.WriteString("- Mode: demo, data is kept in the local store.\n")
	} else {
		b.WriteString("- Mode: normal, data is kept in the managed backend.\n")
	}

	if signedIn {
		b.WriteString("- The user is signed in.\n")
	} else {
		b.WriteString("- The user is not signed in.\n")
	}

	return b.String()
}
