// ABOUTME: Contact CLI commands
// ABOUTME: Human-friendly commands for managing contacts, addresses, and touchpoints
package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/harperreed/touchbase/crm"
	"github.com/harperreed/touchbase/models"
)

// AddContactCommand adds a new contact.
func AddContactCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("add-contact", flag.ContinueOnError)
	name := fs.String("name", "", "Contact name (required)")
	frequency := fs.Int("frequency", 0, "Desired days between interactions (0 hides the contact)")
	description := fs.String("description", "", "Notes about the contact")
	linkedin := fs.String("linkedin", "", "LinkedIn profile URL")
	twitter := fs.String("twitter", "", "Twitter profile URL")
	var emails, phones stringList
	fs.Var(&emails, "email", "Email address (repeatable)")
	fs.Var(&phones, "phone", "Phone number (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	ctx := context.Background()
	user, err := app.User(ctx)
	if err != nil {
		return err
	}

	in := crm.ContactInput{
		Name:        *name,
		Description: *description,
		LinkedInURL: *linkedin,
		TwitterURL:  *twitter,
		Emails:      emails,
		Phones:      phones,
	}
	if *frequency > 0 {
		in.FrequencyInDays = frequency
	}

	contact, err := app.Service.CreateContact(ctx, user.ID, in)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}

	app.printf("✓ Contact created: %s (ID: %s)\n", contact.Name, contact.ID)
	for _, e := range emails {
		app.printf("  Email: %s\n", e)
	}
	for _, p := range phones {
		app.printf("  Phone: %s\n", p)
	}
	if contact.Tracked() {
		app.printf("  Every: %d days\n", *contact.FrequencyInDays)
	}
	return nil
}

// ListContactsCommand lists contacts with their status, most overdue first.
func ListContactsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("list-contacts", flag.ContinueOnError)
	status := fs.String("status", "", "Filter by status: out_of_touch, in_touch, hidden (default: every tracked contact)")
	query := fs.String("query", "", "Search by name or email instead of listing by status")
	limit := fs.Int("limit", 50, "Maximum results for --query")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	user, err := app.User(ctx)
	if err != nil {
		return err
	}

	if *query != "" {
		contacts, err := app.Service.FindContacts(ctx, user.ID, *query, *limit)
		if err != nil {
			return fmt.Errorf("failed to find contacts: %w", err)
		}
		if len(contacts) == 0 {
			app.printf("No contacts found\n")
			return nil
		}
		w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "NAME\tEVERY\tID")
		_, _ = fmt.Fprintln(w, "----\t-----\t--")
		for _, c := range contacts {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, cadence(&c), shortID(c.ID))
		}
		_ = w.Flush()
		app.printf("\nTotal: %d contact(s)\n", len(contacts))
		return nil
	}

	var filter *models.ContactStatus
	if *status != "" {
		st, ok := models.ParseContactStatus(*status)
		if !ok {
			return fmt.Errorf("unknown status: %s", *status)
		}
		filter = &st
	}

	overview, err := app.Service.ContactOverview(ctx, user.ID, filter)
	if err != nil {
		return fmt.Errorf("failed to list contacts: %w", err)
	}

	app.printf("Tracked: %d  Out of touch: %d  In touch: %d  Hidden: %d\n\n",
		overview.Counts.Selected, overview.Counts.OutOfTouch, overview.Counts.InTouch, overview.Counts.Hidden)

	if len(overview.Contacts) == 0 {
		app.printf("No contacts found\n")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tSTATUS\tURGENCY\tEVERY\tDUE\tID")
	_, _ = fmt.Fprintln(w, "----\t------\t-------\t-----\t---\t--")
	for _, dc := range overview.Contacts {
		due := "-"
		if dc.DueDate != nil {
			due = dc.DueDate.Format("2006-01-02")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			dc.Contact.Name, dc.Status, dc.Urgency, cadence(&dc.Contact), due, shortID(dc.Contact.ID))
	}
	_ = w.Flush()

	app.printf("\nTotal: %d contact(s)\n", len(overview.Contacts))
	return nil
}

// ShowContactCommand prints a contact with its status and history.
func ShowContactCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("show-contact", flag.ContinueOnError)
	contactID, err := parseIDArg(fs, args, "contact")
	if err != nil {
		return err
	}

	ctx := context.Background()
	user, err := app.User(ctx)
	if err != nil {
		return err
	}

	detail, err := app.Service.ContactDetail(ctx, user.ID, contactID)
	if err != nil {
		return fmt.Errorf("contact not found: %w", err)
	}

	c := detail.Contact
	app.printf("%s\n", c.Name)
	app.printf("  ID:      %s\n", c.ID)
	app.printf("  Status:  %s\n", detail.Urgency.Status)
	if c.Tracked() {
		app.printf("  Every:   %d days\n", *c.FrequencyInDays)
		app.printf("  Urgency: %d\n", detail.Urgency.Urgency)
		app.printf("  Due:     %s\n", detail.Urgency.DueDate.Format("2006-01-02"))
	}
	if detail.Urgency.HasInteraction {
		app.printf("  Last:    %s\n", detail.Urgency.LastInteraction.Format("2006-01-02"))
	}
	for _, e := range detail.Emails {
		app.printf("  Email:   %s (ID: %s)\n", e.Email, e.ID)
	}
	for _, p := range detail.Phones {
		app.printf("  Phone:   %s\n", p.PhoneNumber)
	}
	if c.LinkedInURL != "" {
		app.printf("  LinkedIn: %s\n", c.LinkedInURL)
	}
	if c.TwitterURL != "" {
		app.printf("  Twitter: %s\n", c.TwitterURL)
	}
	if c.Description != "" {
		app.printf("\n%s\n", c.Description)
	}

	if len(detail.Interactions) > 0 {
		app.printf("\nInteractions:\n")
		w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
		for _, it := range detail.Interactions {
			_, _ = fmt.Fprintf(w, "  %s\t%s\t%s\n", it.WasAt.Format("2006-01-02"), typeName(it.Type), it.Title)
		}
		_ = w.Flush()
	}
	return nil
}

// UpdateContactCommand updates the fields given as flags; flags must come before the ID.
func UpdateContactCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("update-contact", flag.ContinueOnError)
	name := fs.String("name", "", "Contact name")
	frequency := fs.Int("frequency", 0, "Desired days between interactions (0 hides the contact)")
	description := fs.String("description", "", "Notes about the contact")
	linkedin := fs.String("linkedin", "", "LinkedIn profile URL")
	twitter := fs.String("twitter", "", "Twitter profile URL")
	contactID, err := parseIDArg(fs, args, "contact")
	if err != nil {
		return err
	}

	ctx := context.Background()
	user, err := app.User(ctx)
	if err != nil {
		return err
	}

	detail, err := app.Service.ContactDetail(ctx, user.ID, contactID)
	if err != nil {
		return fmt.Errorf("contact not found: %w", err)
	}
	existing := detail.Contact
	in := crm.ContactInput{
		Name:            existing.Name,
		FrequencyInDays: existing.FrequencyInDays,
		Description:     existing.Description,
		LinkedInURL:     existing.LinkedInURL,
		TwitterURL:      existing.TwitterURL,
	}

	// Only flags that were given change the contact.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			in.Name = *name
		case "frequency":
			if *frequency > 0 {
				in.FrequencyInDays = frequency
			} else {
				in.FrequencyInDays = nil
			}
		case "description":
			in.Description = *description
		case "linkedin":
			in.LinkedInURL = *linkedin
		case "twitter":
			in.TwitterURL = *twitter
		}
	})

	updated, err := app.Service.UpdateContact(ctx, user.ID, contactID, in)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}

	app.printf("✓ Contact updated: %s (ID: %s)\n", updated.Name, updated.ID)
	return nil
}

// DeleteContactCommand deletes a contact.
func DeleteContactCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("delete-contact", flag.ContinueOnError)
	contactID, err := parseIDArg(fs, args, "contact")
	if err != nil {
		return err
	}

	ctx := context.Background()
	user, err := app.User(ctx)
	if err != nil {
		return err
	}

	if err := app.Service.DeleteContact(ctx, user.ID, contactID); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	app.printf("✓ Contact deleted: %s\n", contactID)
	return nil
}

// AddEmailCommand adds an address to a contact: add-email <contact-id> <email>.
func AddEmailCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("add-email", flag.ContinueOnError)
	contactID, err := parseIDArg(fs, args, "contact")
	if err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("email address is required")
	}

	ctx := context.Background()
	user, err := app.User(ctx)
	if err != nil {
		return err
	}

	addr, err := app.Service.AddEmailAddress(ctx, user.ID, contactID, fs.Arg(1))
	if err != nil {
		return fmt.Errorf("failed to add email: %w", err)
	}

	app.printf("✓ Email added: %s (ID: %s)\n", addr.Email, addr.ID)
	return nil
}

// RemoveEmailCommand removes an address by its ID.
func RemoveEmailCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("remove-email", flag.ContinueOnError)
	emailID, err := parseIDArg(fs, args, "email")
	if err != nil {
		return err
	}

	ctx := context.Background()
	user, err := app.User(ctx)
	if err != nil {
		return err
	}

	owner, err := app.Service.RemoveEmailAddress(ctx, user.ID, emailID)
	if err != nil {
		return fmt.Errorf("failed to remove email: %w", err)
	}

	app.printf("✓ Email removed from contact %s\n", owner)
	return nil
}

// AddPhoneCommand adds a phone number to a contact: add-phone <contact-id> <phone>.
func AddPhoneCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("add-phone", flag.ContinueOnError)
	contactID, err := parseIDArg(fs, args, "contact")
	if err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("phone number is required")
	}

	ctx := context.Background()
	user, err := app.User(ctx)
	if err != nil {
		return err
	}

	phone, err := app.Service.AddPhoneNumber(ctx, user.ID, contactID, fs.Arg(1))
	if err != nil {
		return fmt.Errorf("failed to add phone: %w", err)
	}

	app.printf("✓ Phone added: %s\n", phone.PhoneNumber)
	return nil
}

// TouchCommand records a touchpoint with a contact right now.
func TouchCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("touch", flag.ContinueOnError)
	contactID, err := parseIDArg(fs, args, "contact")
	if err != nil {
		return err
	}

	ctx := context.Background()
	user, err := app.User(ctx)
	if err != nil {
		return err
	}

	res, err := app.Service.AddTouchpoint(ctx, user.ID, contactID)
	if err != nil {
		return fmt.Errorf("failed to add touchpoint: %w", err)
	}

	app.printf("✓ %s\n", res.Notice)
	return nil
}

func cadence(c *models.Contact) string {
	if !c.Tracked() {
		return "-"
	}
	return fmt.Sprintf("%dd", *c.FrequencyInDays)
}

func typeName(t *string) string {
	if t == nil {
		return "-"
	}
	return *t
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
