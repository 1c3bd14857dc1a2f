package driver

import (
	"context"
	"fmt"
	"sort"
	"strings"

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

func (d *Driver) clientBasicInformation(ctx context.Context, c *cycle) error {
	switch c.st.Action {
	case types.StateCheckBasicData:
		return d.checkBasicData(ctx, c)
	case types.StateDoNextStep:
		return d.doNextStep(ctx, c)
	}
	d.log.Error("unhandled action on client details page", zap.String("action", string(c.st.Action)))
	return nil
}

// checkBasicData fills every optional field the record carries. Saving
// reloads the page in DO_NEXT_STEP; with nothing to save it moves on now.
func (d *Driver) checkBasicData(ctx context.Context, c *cycle) error {
	tr, err := fieldmap.Resolve(fieldmap.Optional, c.kind, c.doc)
	if err != nil {
		return d.stop(ctx, c, fieldmap.NotFoundMessage(fieldmap.Optional))
	}
	fields := tr.Fields()
	sort.Strings(fields)

	in := form.New(d.page, c.doc, d.log).WithClock(d.now)
	inserted := 0
	for _, field := range fields {
		value, ok := c.rec.Get(field)
		if !ok {
			continue
		}
		mode := form.ByText
		if fieldmap.IsDateField(field) {
			mode = form.Date
		}
		id, _ := tr.Lookup(field)
		if in.Insert(ctx, value, id, mode) {
			inserted++
			continue
		}
		if err := d.fieldError(ctx, c, field); err != nil {
			return err
		}
	}
	if inserted == 0 {
		return d.doNextStep(ctx, c)
	}
	if err := d.setAction(ctx, c, types.StateDoNextStep); err != nil {
		return err
	}
	return d.page.Click(ctx, saveButton)
}

// doNextStep goes to the services page when the record names a service, or
// on to the next client otherwise.
func (d *Driver) doNextStep(ctx context.Context, c *cycle) error {
	if _, err := fieldmap.Resolve(fieldmap.Service, c.kind, c.doc); err != nil {
		return d.stop(ctx, c, fieldmap.NotFoundMessage(fieldmap.Service))
	}
	var err error
	if c.rec.Has(types.FieldServiceCode) {
		err = d.navigate(ctx, c, types.StateCheckServices, page.HrefServices)
	} else {
		err = d.nextClient(ctx, c)
	}
	if err != nil {
		return err
	}
	// the save leaves a confirmation alert behind
	if err := popup.Dismiss(ctx, d.page, d.cfg.DismissDelay); err != nil {
		d.log.Debug("dismiss alert", zap.Error(err))
	}
	return nil
}

func (d *Driver) services(ctx context.Context, c *cycle) error {
	switch c.st.Action {
	case types.StateCheckServices:
		return d.checkServices(ctx, c)
	case types.StateAddService:
		return d.addService(ctx, c)
	case types.StateAddActionData:
		return d.page.Navigate(ctx, page.HrefAddAction)
	case types.StateSkipActionData:
		return d.nextClient(ctx, c)
	}
	d.log.Error("unhandled action on services page", zap.String("action", string(c.st.Action)))
	return nil
}

// checkServices looks for the record's service in the client's services
// table. A live one is reused; a closed or missing one is added.
func (d *Driver) checkServices(ctx context.Context, c *cycle) error {
	code := c.rec.Value(types.FieldServiceCode)
	desc, ok := fieldmap.ServiceDescription(code)
	if !ok {
		return d.skip(ctx, c, fmt.Sprintf("Service code <%s> doesn't match any service.", code))
	}
	if liveService(c.doc.ServiceRows(), desc) {
		if c.rec.Has(types.FieldActionName) {
			return d.navigate(ctx, c, types.StateAddActionData, page.HrefAddAction)
		}
		return d.nextClient(ctx, c)
	}
	if err := d.setAction(ctx, c, types.StateAddService); err != nil {
		return err
	}
	return d.page.Click(ctx, newServicesLink)
}

// liveService reports whether the first row describing desc is live.
func liveService(rows []dom.ServiceRow, desc string) bool {
	for _, r := range rows {
		if strings.EqualFold(r.Description, desc) {
			return r.Live
		}
	}
	return false
}

func (d *Driver) addService(ctx context.Context, c *cycle) error {
	tr, err := fieldmap.Resolve(fieldmap.Service, c.kind, c.doc)
	if err != nil {
		return d.stop(ctx, c, fieldmap.NotFoundMessage(fieldmap.Service))
	}
	in := form.New(d.page, c.doc, d.log).WithClock(d.now)
	code := strings.ToUpper(c.rec.Value(types.FieldServiceCode))

	id, _ := tr.Lookup(types.FieldServiceCode)
	if !in.Insert(ctx, normalize.PadServiceCode(code), id, form.ByCode) {
		if err := d.fieldError(ctx, c, types.FieldServiceCode); err != nil {
			return err
		}
		return d.skip(ctx, c, fmt.Sprintf("No match found in Service Description dropdown - service code <%s> may not be accurate", code))
	}
	if start, ok := c.rec.Get(types.FieldServiceStartDate); ok {
		id, _ := tr.Lookup(types.FieldServiceStartDate)
		if !in.Insert(ctx, start, id, form.Date) {
			if err := d.fieldError(ctx, c, types.FieldServiceStartDate); err != nil {
				return err
			}
			return d.skip(ctx, c, fmt.Sprintf(
				"Could not properly save service start date. Please check date: <%s> for formatting issues.", start))
		}
	}
	if worker, ok := c.rec.Get(types.FieldServiceWorker); ok {
		id, _ := tr.Lookup(types.FieldServiceWorker)
		if !in.Insert(ctx, worker, id, form.ByText) {
			if err := d.fieldError(ctx, c, types.FieldServiceWorker); err != nil {
				return err
			}
			return d.skip(ctx, c, fmt.Sprintf(
				"Could not find service caseworker from given value \"%s\" - skipping client", worker))
		}
	}

	next := types.StateSkipActionData
	if c.rec.Has(types.FieldActionName) {
		next = types.StateAddActionData
	}
	if err := d.setAction(ctx, c, next); err != nil {
		return err
	}
	d.report(ctx, c, types.OutcomeServiceAdded, code)
	if err := wait.Delay(ctx, d.cfg.SaveDelay); err != nil {
		return err
	}
	return d.page.Click(ctx, saveButton)
}

func (d *Driver) addAction(ctx context.Context, c *cycle) error {
	if c.st.Action != types.StateAddActionData {
		d.log.Error("unhandled action on add action page", zap.String("action", string(c.st.Action)))
		return nil
	}
	tr, err := fieldmap.Resolve(fieldmap.Action, c.kind, c.doc)
	if err != nil {
		return d.stop(ctx, c, fieldmap.NotFoundMessage(fieldmap.Action))
	}
	in := form.New(d.page, c.doc, d.log).WithClock(d.now)

	desc, _ := fieldmap.ServiceDescription(c.rec.Value(types.FieldServiceCode))
	servicesID, _ := tr.Lookup(types.FieldServiceCode)
	if !in.Insert(ctx, desc, servicesID, form.ByText) {
		if err := d.fieldError(ctx, c, types.FieldServiceCode); err != nil {
			return err
		}
		return d.skip(ctx, c, "No match found in Services dropdown - service code may not be accurate. Skipping client.")
	}
	if _, err := d.page.Eval(ctx, "updateDdlActiontype()", nil); err != nil {
		return err
	}

	actionsID, _ := tr.Lookup(types.FieldActionName)
	populated := func(ctx context.Context) (bool, error) {
		content, err := d.page.Content(ctx)
		if err != nil {
			return false, err
		}
		doc, err := dom.Parse(content)
		if err != nil {
			return false, err
		}
		return doc.SelectPopulated(actionsID), nil
	}
	if err := wait.For(ctx, "Utils_IsSelectElemPopulated", populated, d.cfg.PollInterval, d.cfg.PollAttempts); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return d.skip(ctx, c, err.Error())
	}
	return d.fillAction(ctx, c, tr)
}

// fillAction runs on a fresh snapshot, since the action dropdown was empty
// in the one the page load started with.
func (d *Driver) fillAction(ctx context.Context, c *cycle, tr fieldmap.Translator) error {
	content, err := d.page.Content(ctx)
	if err != nil {
		return err
	}
	doc, err := dom.Parse(content)
	if err != nil {
		return err
	}
	in := form.New(d.page, doc, d.log).WithClock(d.now)

	name := c.rec.Value(types.FieldActionName)
	id, _ := tr.Lookup(types.FieldActionName)
	if !in.Insert(ctx, name, id, form.ByText) {
		if err := d.fieldError(ctx, c, types.FieldActionName); err != nil {
			return err
		}
		return d.skip(ctx, c, fmt.Sprintf("No match found in Action dropdown - action name <%s> may not be accurate.", name))
	}
	if notes, ok := c.rec.Get(types.FieldActionNotes); ok {
		const appendNote = `(text) => {
  const frame = document.querySelector('iframe');
  if (!frame || !frame.contentDocument) return false;
  const p = frame.contentDocument.createElement('p');
  p.textContent = text;
  frame.contentDocument.body.appendChild(p);
  return true;
}`
		if _, err := d.page.Eval(ctx, appendNote, notes); err != nil {
			return err
		}
	}
	if worker, ok := c.rec.Get(types.FieldActionWorker); ok {
		id, _ := tr.Lookup(types.FieldActionWorker)
		if !in.Insert(ctx, worker, id, form.ByText) {
			if err := d.fieldError(ctx, c, types.FieldActionWorker); err != nil {
				return err
			}
			return d.skip(ctx, c, fmt.Sprintf("Could not find caseworker from given value \"%s\".", worker))
		}
	}
	if err := d.setAction(ctx, c, types.StateNextClientRedir); err != nil {
		return err
	}
	d.report(ctx, c, types.OutcomeActionAdded, name)
	return d.page.Click(ctx, saveButton)
}

func (d *Driver) viewActions(ctx context.Context, c *cycle) error {
	if c.st.Action != types.StateNextClientRedir {
		d.log.Error("unhandled action on view actions page", zap.String("action", string(c.st.Action)))
		return nil
	}
	return d.nextClient(ctx, c)
}
