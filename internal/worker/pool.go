// Package worker runs a fixed-size pool of tomb-supervised goroutines that
// each pull tasks off a shared channel and hand them to a caller-supplied
// function.
package worker

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const taskChanSize = 100

// Function is the unit of work a pool runs for each task.
type Function = func(t *tomb.Tomb, task any) error

// Pool is a fixed-size set of workers draining a shared task queue.
type Pool struct {
	n     int
	tasks chan any
	work  Function
}

// New constructs a pool with n workers.
func New(n int) Pool {
	return Pool{tasks: make(chan any, taskChanSize), n: n}
}

// AddTask enqueues a task for the next free worker.
func (p *Pool) AddTask(task any) {
	p.tasks <- task
}

// Setup spawns workers under t until t dies, re-spawning each worker as it
// exits so the pool always has n workers in flight.
func (p *Pool) Setup(t *tomb.Tomb, work Function) {
	p.work = work
	log.Info().Int("workers", p.n).Msg("starting worker pool")
	active := 0
	for {
		select {
		case <-t.Dying():
			return
		default:
			if active < p.n {
				t.Go(func() error {
					err := p.worker(t)
					active--
					return err
				})
				active++
			}
		}
	}
}

func (p *Pool) worker(t *tomb.Tomb) error {
	select {
	case <-t.Dying():
		return nil
	case task := <-p.tasks:
		if err := p.work(t, task); err != nil {
			log.Error().Err(err).Msg("worker exiting on error")
			return err
		}
	}
	return nil
}
