package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dailyyoga/jsonify/ch"
	"github.com/dailyyoga/jsonify/cron"
	"github.com/dailyyoga/jsonify/feed"
	"github.com/dailyyoga/jsonify/kafka"
	"github.com/dailyyoga/jsonify/syncer"
	"go.uber.org/zap"
)

func runServe(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	engine, err := a.engine(ctx)
	if err != nil {
		return err
	}

	if len(a.cfg.Consumer.Brokers) == 0 {
		a.logger.Warn("no kafka brokers configured, mutation events are not consumed")
	} else {
		consumer, err := kafka.NewConsumer(a.logger, &a.cfg.Consumer)
		if err != nil {
			return err
		}
		a.onClose(consumer.Close)
		listener := syncer.NewListener(a.logger, engine)
		if err := consumer.Start(ctx, listener.HandleMessage); err != nil {
			return err
		}
	}

	scheduler, err := cron.NewCron(a.logger, &a.cfg.Cron)
	if err != nil {
		return err
	}
	if err := scheduler.AddTasks("expiry-sweep", a.cfg.Cron.SweepSpec, syncer.NewSweepTask(engine)); err != nil {
		return err
	}
	if err := scheduler.AddTasks("nightly-rebuild", a.cfg.Cron.RebuildSpec, syncer.NewRebuildTask(engine)); err != nil {
		return err
	}
	scheduler.Start()
	a.onClose(func() error { scheduler.Close(); return nil })

	a.logger.Info("jsonify serving", zap.String("path", engine.Path()))
	<-ctx.Done()
	a.logger.Info("jsonify shutting down")
	return nil
}

// eventFlags registers the flags shared by handle and emit
type eventFlags struct {
	kind     string
	id       uint64
	autosave bool
}

func (f *eventFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.kind, "kind", string(feed.EventSaved), "event kind: saved, trashed or deleted")
	fs.Uint64Var(&f.id, "id", 0, "post id (0 requests a full rebuild)")
	fs.BoolVar(&f.autosave, "autosave", false, "mark the event as an autosave")
}

func (f *eventFlags) event() (feed.MutationEvent, error) {
	kind, err := feed.ParseEventKind(f.kind)
	if err != nil {
		return feed.MutationEvent{}, err
	}
	var subject *uint64
	if f.id != 0 {
		id := f.id
		subject = &id
	}
	ev := feed.NewEvent(kind, subject)
	ev.Autosave = f.autosave
	return ev, nil
}

func runHandle(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("handle", flag.ContinueOnError)
	var ef eventFlags
	ef.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ev, err := ef.event()
	if err != nil {
		return err
	}

	engine, err := a.engine(ctx)
	if err != nil {
		return err
	}
	out, err := engine.Handle(ctx, ev)
	printOutcome(a.stdout, out)
	return err
}

func runEmit(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("emit", flag.ContinueOnError)
	var ef eventFlags
	ef.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ev, err := ef.event()
	if err != nil {
		return err
	}
	value, err := syncer.EncodeEvent(ev)
	if err != nil {
		return err
	}

	producer, err := kafka.NewProducer(a.logger, &a.cfg.Producer)
	if err != nil {
		return err
	}
	a.onClose(producer.Close)

	key := []byte(strconv.FormatUint(ef.id, 10))
	if err := producer.Produce(ctx, kafka.NewMessage(a.cfg.Producer.Topic, key, value)); err != nil {
		return err
	}
	a.printf("emitted %s event %s for post %d\n", ev.Kind, ev.ID, ef.id)
	return nil
}

func runRegenerate(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("regenerate", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	engine, err := a.engine(ctx)
	if err != nil {
		return err
	}
	report := engine.Regenerate(ctx)
	printRegenerate(a.stdout, report)
	return report.Err
}

func runSweep(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	engine, err := a.engine(ctx)
	if err != nil {
		return err
	}
	return cron.RunOnce(ctx, a.logger, "sweep", syncer.NewSweepTask(engine))
}

func runJournal(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("journal", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "number of rows")
	site := fs.String("site", "", "only rows of this site")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !a.cfg.ClickHouse.Enabled() {
		return errors.New("journal: JSONIFY_CH_HOSTS is not set")
	}
	client, err := a.clickhouse(ctx)
	if err != nil {
		return err
	}
	rows, err := ch.RecentSyncLog(ctx, client, *site, *limit)
	if err != nil {
		return err
	}
	printJournal(a.stdout, rows)
	return nil
}

func printOutcome(w io.Writer, o syncer.Outcome) {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	defer tw.Flush()
	writeRow(tw, "event", o.EventID)
	writeRow(tw, "action", string(o.Action))
	if o.SubjectID != 0 {
		writeRow(tw, "subject", strconv.FormatUint(o.SubjectID, 10))
	}
	if o.EffectiveID != 0 && o.EffectiveID != o.SubjectID {
		writeRow(tw, "effective", strconv.FormatUint(o.EffectiveID, 10))
	}
	writeRow(tw, "items", strconv.Itoa(o.Items))
	writeRow(tw, "duration", o.Duration.Round(time.Millisecond).String())
	if o.Err != nil {
		writeRow(tw, "error", o.Err.Error())
	}
}

// printRegenerate prints the operator status lines of a regeneration
func printRegenerate(w io.Writer, r syncer.RegenerateReport) {
	io.WriteString(w, "Clearing Cache...\n")
	status := "Success!"
	if !r.Deleted {
		status = "Failed!"
	}
	io.WriteString(w, "Deleting "+r.Path+"... "+status+"\n")
	io.WriteString(w, "Re-Generating Cache...\n")
	if r.Err != nil {
		return
	}
	io.WriteString(w, "All finished!\n")
}

func printJournal(w io.Writer, rows []ch.SyncLogRow) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()
	io.WriteString(tw, "TIME\tSITE\tKIND\tSUBJECT\tACTION\tITEMS\tMS\tERROR\n")
	for _, r := range rows {
		io.WriteString(tw, r.CreatedAt.UTC().Format(time.RFC3339)+"\t"+r.Site+"\t"+r.Kind+"\t"+
			strconv.FormatUint(r.SubjectID, 10)+"\t"+r.Action+"\t"+
			strconv.FormatUint(uint64(r.Items), 10)+"\t"+strconv.FormatUint(r.DurationMs, 10)+"\t"+r.Error+"\n")
	}
}

func writeRow(w io.Writer, key, value string) {
	io.WriteString(w, key+"\t"+value+"\n")
}
