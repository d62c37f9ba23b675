// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command fce-verify checks the reference frame with the CRC engine and
// reports the outcome on the indicator LED.
//
// The LED is switched on when the CRC of the frame matches the expected
// value, and blinks otherwise. fce-verify keeps the indicator alive until
// interrupted, unless -exit is set.
//
// Usage: fce-verify [OPTIONS]
//
// Example:
//
//	$> fce-verify -crc=0x99f69cd9 -exit
//	$> fce-verify -crc=0x99f69cd8 -blink=250 -db=fce -mail
//	$> fce-verify -i2c-bus=1 -i2c-addr=0x20
package main // import "github.com/go-lpc/dmacrc/cmd/fce-verify"

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/go-lpc/dmacrc"
	"github.com/go-lpc/dmacrc/board"
	"github.com/go-lpc/dmacrc/gpio"
	"github.com/go-lpc/dmacrc/rundb"
	"github.com/go-lpc/dmacrc/verify"
	"github.com/sbinet/pmon"
	"golang.org/x/sync/errgroup"
	mail "gopkg.in/gomail.v2"
)

type options struct {
	crc   uint32        // expected CRC
	tick  time.Duration // system tick period
	blink int           // number of ticks between two LED toggles
	exit  bool          // exit once the verification is done

	mon  bool          // enable pmon monitoring
	freq time.Duration // pmon frequency
	pout io.Writer     // pmon output

	db   string // name of the runs database
	mail bool   // send a mail alert on mismatch

	i2c  int   // I2C bus of the LED expander, -1 for the on-board LED
	addr uint8 // I2C address of the LED expander
}

func main() {
	var (
		crc   = flag.String("crc", fmt.Sprintf("0x%08x", verify.FrameCRC), "expected CRC-32 of the frame")
		tick  = flag.Duration("tick", time.Millisecond, "system tick period")
		blink = flag.Int("blink", 500, "number of ticks between two LED toggles on mismatch")
		exit  = flag.Bool("exit", false, "exit once the verification is done")
		mon   = flag.Bool("pmon", false, "enable pmon monitoring")
		freq  = flag.Duration("freq", 1*time.Second, "pmon frequency")
		db    = flag.String("db", "", "name of the database recording runs")
		alert = flag.Bool("mail", false, "send a mail alert on CRC mismatch")
		bus   = flag.Int("i2c-bus", -1, "I2C bus of the LED expander (-1: on-board LED)")
		addr  = flag.Uint("i2c-addr", 0x20, "I2C address of the LED expander")
		vers  = flag.Bool("version", false, "display version and exit")
	)

	flag.Parse()

	log.SetPrefix("fce-verify: ")
	log.SetFlags(0)

	if *vers {
		v, sum := dmacrc.Version()
		fmt.Printf("fce-verify %s %s\n", v, sum)
		return
	}

	v, err := strconv.ParseUint(*crc, 0, 32)
	if err != nil {
		log.Fatalf("could not parse expected CRC %q: %+v", *crc, err)
	}

	i2c, err := i2cAddr(*addr)
	if err != nil {
		log.Printf("%+v", err)
		flag.Usage()
		os.Exit(2)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	defer signal.Stop(stop)

	_, err = run(context.Background(), options{
		crc:   uint32(v),
		tick:  *tick,
		blink: *blink,
		exit:  *exit,
		mon:   *mon,
		freq:  *freq,
		pout:  os.Stderr,
		db:    *db,
		mail:  *alert,
		i2c:   *bus,
		addr:  i2c,
	}, stop)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(ctx context.Context, o options, stop chan os.Signal) (verify.Report, error) {
	var rep verify.Report

	if o.mon {
		p, err := pmon.Monitor(os.Getpid())
		if err != nil {
			return rep, fmt.Errorf("could not start monitoring: %w", err)
		}
		p.W = o.pout
		p.Freq = o.freq

		// monitoring ends with the process.
		go func() {
			err := p.Run()
			if err != nil {
				log.Printf("could not run pmon: %+v", err)
			}
		}()
	}

	opts := []board.Option{
		board.WithLogger(log.New(os.Stdout, "fce-verify: ", 0)),
	}
	if o.i2c >= 0 {
		exp, err := gpio.OpenExpander(o.i2c, o.addr)
		if err != nil {
			return rep, fmt.Errorf("could not open LED expander: %w", err)
		}
		defer exp.Close()
		opts = append(opts, board.WithLED(exp.Pin(0)))
	}

	brd, err := board.New(opts...)
	if err != nil {
		return rep, fmt.Errorf("could not initialize board: %w", err)
	}
	defer brd.Close()

	cfg := verify.DefaultConfig()
	cfg.CRC.Check = o.crc
	cfg.Tick = o.tick
	cfg.Threshold = o.blink

	v, err := verify.New(brd, cfg)
	if err != nil {
		return rep, fmt.Errorf("could not create verifier: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		select {
		case <-stop:
			log.Printf("interrupted")
			cancel()
		case <-ctx.Done():
		}
		return nil
	})

	grp.Go(func() error {
		defer cancel()

		r, err := v.Run(ctx, verify.Frame)
		if err != nil {
			return fmt.Errorf("could not verify frame: %w", err)
		}
		rep = r
		log.Printf("verification: %v", rep)

		if o.db != "" {
			err = record(ctx, o.db, rep)
			if err != nil {
				return err
			}
		}

		if o.mail && rep.State == verify.MismatchBlink {
			alertMail(rep)
		}

		if o.exit {
			return nil
		}

		<-ctx.Done()
		log.Printf("indicator: state=%v, toggles=%d", v.Indicator().State(), v.Indicator().Toggles())
		return nil
	})

	err = grp.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return rep, err
	}
	return rep, nil
}

// i2cAddr validates a 7-bit I2C address.
func i2cAddr(v uint) (uint8, error) {
	if v > 0x7f {
		return 0, fmt.Errorf("invalid I2C address 0x%x (max=0x7f)", v)
	}
	return uint8(v), nil
}

type runsDB interface {
	Setup(ctx context.Context) error
	Record(ctx context.Context, now time.Time, rep verify.Report) (string, error)
	Close() error
}

var openDB = func(name string) (runsDB, error) {
	return rundb.Open(name)
}

func record(ctx context.Context, dbname string, rep verify.Report) error {
	db, err := openDB(dbname)
	if err != nil {
		return fmt.Errorf("could not open runs db: %w", err)
	}
	defer db.Close()

	err = db.Setup(ctx)
	if err != nil {
		return fmt.Errorf("could not setup runs db: %w", err)
	}

	id, err := db.Record(ctx, time.Now(), rep)
	if err != nil {
		return fmt.Errorf("could not record verification: %w", err)
	}
	log.Printf("recorded run %s", id)

	return nil
}

var (
	alertMailUsr  = os.Getenv("MAIL_USERNAME")
	alertMailPwd  = os.Getenv("MAIL_PASSWORD")
	alertMailSrv  = os.Getenv("MAIL_SERVER")
	alertMailPort = atoi(os.Getenv("MAIL_PORT"))
	alertMailTgts = strings.Split(os.Getenv("MAIL_TGTS"), ",")
)

func alertMail(rep verify.Report) {
	if alertMailUsr == "" || alertMailPwd == "" ||
		alertMailSrv == "" || alertMailPort == 0 ||
		len(alertMailTgts) == 0 || alertMailTgts[0] == "" {
		log.Printf("could not send mail alert: missing credentials")
		return
	}

	dial := mail.NewDialer(alertMailSrv, alertMailPort, alertMailUsr, alertMailPwd)
	dial.TLSConfig = &tls.Config{
		InsecureSkipVerify: true,
	}
	err := dial.DialAndSend(newAlert(rep))
	if err != nil {
		log.Printf("could not send mail alert: %+v", err)
	}
}

func newAlert(rep verify.Report) *mail.Message {
	msg := mail.NewMessage()
	msg.SetHeader("From", alertMailUsr)
	msg.SetHeader("Bcc", alertMailTgts...)
	msg.SetHeader("Subject", fmt.Sprintf("[fce-verify] CRC mismatch: 0x%08x", rep.CRC))
	msg.SetBody("text/plain", fmt.Sprintf(
		"state:    %v\ncrc:      0x%08x\nexpected: 0x%08x\nwords:    %d\nelapsed:  %v",
		rep.State, rep.CRC, rep.Expected, rep.Words, rep.Elapsed,
	))
	return msg
}

func atoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
