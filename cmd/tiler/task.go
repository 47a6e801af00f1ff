package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/maptile/tilecover"
	"github.com/pkg/errors"
	"github.com/teris-io/shortid"
	pb "gopkg.in/cheggaaa/pb.v1"

	"github.com/RoninZc/tiler/cell"
	"github.com/RoninZc/tiler/config"
	"github.com/RoninZc/tiler/tile"
)

func runTask(conf *config.Conf, bp *BreakPoint) error {
	start := time.Now()

	layers, err := loadLayers(conf.Layers)
	if err != nil {
		return err
	}
	sink, err := newSink(conf)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			log.Errorf("close output error, details: %s", err)
		}
	}()

	task, err := NewTask(conf, layers, sink, bp)
	if err != nil {
		return err
	}
	safeExitInst.Register(task.Abort)

	if err := task.Run(); err != nil {
		return err
	}
	if err := sink.WriteMetadata(task.Metadata()); err != nil {
		return err
	}

	log.Infof("task %s finished in %.3fs, %d tiles saved, %d failed",
		task.ID, time.Since(start).Seconds(), task.Saved(), task.Failed())
	return nil
}

// Task exports every tile of the store between Min and Max zoom
type Task struct {
	ID          string
	Name        string
	Min         int
	Max         int
	Total       int64
	store       *tile.Store
	collection  orb.Collection
	sink        Sink
	bp          *BreakPoint
	gzip        bool
	workerCount int
	saved       int64
	failed      int64
	tileWG      sync.WaitGroup
	abortOnce   sync.Once
	abort       chan struct{}
	workers     chan struct{}
}

// NewTask indexes layers and prepares the worker pool.
func NewTask(conf *config.Conf, layers map[string]*geojson.FeatureCollection, sink Sink, bp *BreakPoint) (*Task, error) {
	if len(layers) == 0 {
		return nil, errors.New("no layer to tile")
	}
	opts, err := conf.TilerOptions(log)
	if err != nil {
		return nil, err
	}
	id, err := shortid.Generate()
	if err != nil {
		return nil, errors.Wrap(err, "generate task id")
	}

	task := &Task{
		ID:          id,
		Name:        conf.Tiler.Name,
		Min:         conf.Tiler.MinZoom,
		Max:         conf.Tiler.MaxZoom,
		store:       tile.NewLayeredStore(layers, opts),
		collection:  collection(layers),
		sink:        sink,
		bp:          bp,
		gzip:        conf.Output.Gzip,
		workerCount: conf.Task.Workers,
		abort:       make(chan struct{}),
	}
	task.workers = make(chan struct{}, task.workerCount)
	return task, nil
}

// Abort stops the task after the tiles already handed to workers.
func (task *Task) Abort() {
	task.abortOnce.Do(func() { close(task.abort) })
}

// Run exports zoom by zoom.
func (task *Task) Run() error {
	for z := task.Min; z <= task.Max; z++ {
		ok, err := task.exportZoom(z)
		if err != nil {
			return err
		}
		if !ok {
			log.Infof("task %s got canceled", task.Name)
			return nil
		}
	}
	return nil
}

// candidates lists the tile ids to look up at zoom. Flat exports use the
// cover of the source geometries; cube-sphere exports descend the store
// from its face roots.
func (task *Task) candidates(zoom int) ([]cell.ID, error) {
	var ids []cell.ID
	if task.store.Options().Projection == cell.WM {
		set, err := tilecover.Collection(task.collection, maptile.Zoom(zoom))
		if err != nil {
			return nil, errors.Wrapf(err, "cover zoom %d", zoom)
		}
		for t := range set {
			ids = append(ids, cell.FromMaptile(t))
		}
	} else {
		ids = task.descend(zoom)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids, nil
}

func (task *Task) descend(zoom int) []cell.ID {
	var out, stack []cell.ID
	for _, face := range task.store.Faces() {
		stack = append(stack, cell.FromFace(task.store.Options().Projection, face))
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := task.store.GetTile(id); !ok {
			continue
		}
		if id.Level() >= zoom {
			out = append(out, id)
			continue
		}
		for _, c := range id.Children() {
			stack = append(stack, c)
		}
	}
	return out
}

// exportZoom returns false when the task was aborted.
func (task *Task) exportZoom(zoom int) (bool, error) {
	ids, err := task.candidates(zoom)
	if err != nil {
		return false, err
	}
	atomic.AddInt64(&task.Total, int64(len(ids)))
	log.Infof("zoom: %d, candidate tiles: %d", zoom, len(ids))

	bar := pb.New(len(ids)).Prefix(fmt.Sprintf("Zoom %d : ", zoom)).Postfix("\n")
	bar.SetRefreshRate(time.Second)
	bar.Start()

	for _, id := range ids {
		if task.bp.IsDone(id) {
			log.Debugf("tile %s already saved, skipped", id)
			bar.Increment()
			continue
		}
		// lookups split the store and stay on this goroutine
		t, ok := task.store.GetTile(id)
		if !ok {
			bar.Increment()
			continue
		}
		select {
		case task.workers <- struct{}{}:
			bar.Increment()
			task.tileWG.Add(1)
			go task.saveTile(t)
		case <-task.abort:
			task.tileWG.Wait()
			bar.Finish()
			return false, nil
		}
	}
	task.tileWG.Wait()
	bar.FinishPrint(fmt.Sprintf("Task %s Zoom %d finished ~", task.ID, zoom))
	return true, nil
}

func (task *Task) saveTile(t *tile.Tile) {
	start := time.Now()
	defer func() {
		task.tileWG.Done()
		<-task.workers
	}()

	data, err := encodeTile(t, task.gzip)
	if err != nil {
		atomic.AddInt64(&task.failed, 1)
		log.Errorf("encode %s tile error ~ %s", t.ID, err)
		return
	}
	if err := task.sink.Save(t.ID, data); err != nil {
		atomic.AddInt64(&task.failed, 1)
		log.Errorf("save %s tile error ~ %s", t.ID, err)
		return
	}
	task.bp.SetDone(t.ID)
	atomic.AddInt64(&task.saved, 1)

	cost := time.Since(start).Milliseconds()
	log.Debugf("tile %s, %d features, %dms, %.2f kb", t.ID, t.Len(), cost, float32(len(data))/1024.0)
}

// Saved tiles written by this run
func (task *Task) Saved() int64 { return atomic.LoadInt64(&task.saved) }

// Failed tiles that could not be encoded or stored
func (task *Task) Failed() int64 { return atomic.LoadInt64(&task.failed) }

// Metadata describes the export for the sink.
func (task *Task) Metadata() map[string]string {
	opts := task.store.Options()
	format := JSON
	if task.gzip {
		format = JSONGZ
	}
	meta := map[string]string{
		"name":       task.Name,
		"format":     format,
		"projection": opts.Projection.String(),
		"minzoom":    strconv.Itoa(task.Min),
		"maxzoom":    strconv.Itoa(task.Max),
		"extent":     strconv.FormatFloat(opts.Extent, 'f', -1, 64),
		"task":       task.ID,
	}
	if len(task.collection) > 0 {
		b := task.collection.Bound()
		c := b.Center()
		meta["bounds"] = fmt.Sprintf("%f,%f,%f,%f", b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat())
		meta["center"] = fmt.Sprintf("%f,%f,%d", c.Lon(), c.Lat(), task.Min)
	}
	return meta
}

// encodeTile marshals the layers of t as GeoJSON collections keyed by
// layer name, gzip compressed when asked.
func encodeTile(t *tile.Tile, compress bool) ([]byte, error) {
	data, err := json.Marshal(t.FeatureCollections())
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s", t.ID)
	}
	if !compress {
		return data, nil
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, errors.Wrapf(err, "gzip %s", t.ID)
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrapf(err, "gzip %s", t.ID)
	}
	return buf.Bytes(), nil
}
