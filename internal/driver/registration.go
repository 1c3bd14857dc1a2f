package driver

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yourorg/rips-import/internal/dom"
	"github.com/yourorg/rips-import/internal/fieldmap"
	"github.com/yourorg/rips-import/internal/form"
	"github.com/yourorg/rips-import/internal/normalize"
	"github.com/yourorg/rips-import/internal/page"
	"github.com/yourorg/rips-import/internal/popup"
	"github.com/yourorg/rips-import/internal/types"
	"github.com/yourorg/rips-import/internal/wait"
)

const registerSave = `input[value="Save"].newField`

func (d *Driver) registration(ctx context.Context, c *cycle) error {
	if c.st.Action != types.StateRegister {
		d.log.Error("unhandled action on registration page", zap.String("action", string(c.st.Action)))
		return nil
	}
	return d.registerClient(ctx, c)
}

// registerClient fills the required fields and saves the new client. Every
// field is attempted so the log names all of them before the client is
// skipped.
func (d *Driver) registerClient(ctx context.Context, c *cycle) error {
	tr, err := fieldmap.Resolve(fieldmap.Required, c.kind, c.doc)
	if err != nil {
		return d.stop(ctx, c, fieldmap.NotFoundMessage(fieldmap.Required))
	}
	in := form.New(d.page, c.doc, d.log).WithClock(d.now)
	ok := true
	insert := func(field, value string, mode form.Mode) error {
		id, _ := tr.Lookup(field)
		if in.Insert(ctx, value, id, mode) {
			return nil
		}
		ok = false
		return d.fieldError(ctx, c, field)
	}

	first, last := c.rec.Value(types.FieldFirstName), c.rec.Value(types.FieldLastName)
	if full, has := c.rec.Get(types.FieldFullName); has {
		// no space leaves first empty, so the insert below fails
		first, last, _ = normalize.SplitFullName(full)
	}
	steps := []struct {
		field, value string
		mode         form.Mode
	}{
		{types.FieldFirstName, first, form.ByText},
		{types.FieldLastName, last, form.ByText},
		{types.FieldUnhcrNumber, c.rec.Value(types.FieldUnhcrNumber), form.ByText},
		{types.FieldPhoneNumber, c.rec.Value(types.FieldPhoneNumber), form.ByText},
		{types.FieldDateOfBirth, c.rec.Value(types.FieldDateOfBirth), form.Date},
		{types.FieldGender, c.rec.Value(types.FieldGender), form.ByText},
	}
	for _, s := range steps {
		if err := insert(s.field, s.value, s.mode); err != nil {
			return err
		}
	}

	raw := c.rec.Value(types.FieldNationality)
	if nat, err := normalize.Nationality(raw); err != nil {
		ok = false
		msg := fmt.Sprintf("Client #%d - Nationality \"%s\" doesn't have proper format before the parens \"()\".", c.number(), raw)
		if err := d.store.AddMessage(ctx, msg); err != nil {
			return err
		}
	} else if err := insert(types.FieldNationality, nat, form.ByText); err != nil {
		return err
	}

	langs := c.rec.Value(types.FieldMainLanguage)
	firstLang, secondLang, total := normalize.Languages(langs)
	if total > 2 {
		msg := fmt.Sprintf("Client #%d - Warning: Only 2 of %d languages from \"%s\" will be saved.", c.number(), total, langs)
		if err := d.store.AddMessage(ctx, msg); err != nil {
			return err
		}
	}
	if err := insert(types.FieldMainLanguage, firstLang, form.ByText); err != nil {
		return err
	}
	if secondLang != "" {
		if err := insert(types.FieldSecondLanguage, secondLang, form.ByText); err != nil {
			return err
		}
	}

	if !ok {
		return d.skip(ctx, c, "Unsuccessful insertion of client data on Registration page.")
	}
	if err := d.setAction(ctx, c, types.StateCheckBasicData); err != nil {
		return err
	}

	// filling the UNHCR number can raise a duplicate alert before saving
	if skipped, err := d.skipOnAlert(ctx, c); skipped || err != nil {
		return err
	}
	if err := d.page.Click(ctx, registerSave); err != nil {
		return err
	}
	fatal, err := d.saveAlert(ctx)
	if err != nil {
		return err
	}
	if fatal != "" {
		return d.skip(ctx, c, "Error occured when registering client: "+fatal)
	}
	d.report(ctx, c, types.OutcomeRegistered, "")
	return nil
}

// saveAlert looks for a fatal alert raised by Save on the registration page
// itself. Once the tab has moved on the client is saved, and any alert there
// belongs to the next page's load.
func (d *Driver) saveAlert(ctx context.Context) (string, error) {
	if err := wait.Delay(ctx, d.cfg.PopupDelay); err != nil {
		return "", err
	}
	if page.KindFromURL(d.page.URL()) != page.Registration {
		return "", nil
	}
	content, err := d.page.Content(ctx)
	if page.KindFromURL(d.page.URL()) != page.Registration {
		// navigated while the snapshot was taken
		return "", nil
	}
	if err != nil {
		return "", err
	}
	doc, err := dom.Parse(content)
	if err != nil {
		return "", err
	}
	return fatalText(popup.Classify(doc)), nil
}

// skipOnAlert skips the client when a fatal alert shows up.
func (d *Driver) skipOnAlert(ctx context.Context, c *cycle) (bool, error) {
	fatal, err := d.fatalAlert(ctx)
	if err != nil || fatal == "" {
		return false, err
	}
	return true, d.skip(ctx, c, "Error occured when registering client: "+fatal)
}

// fatalAlert waits for an alert and returns its text when it is fatal.
func (d *Driver) fatalAlert(ctx context.Context) (string, error) {
	o, err := popup.AwaitAndClassify(ctx, d.page, d.cfg.PopupDelay)
	if err != nil {
		return "", err
	}
	return fatalText(o), nil
}

func fatalText(o popup.Outcome) string {
	switch {
	case o.Kind != popup.Fatal:
		return ""
	case o.Text == "":
		return o.Title
	}
	return o.Text
}
