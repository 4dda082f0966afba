// Copyright 2024 tobyzxj
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package xtoctemplate

import "github.com/wavelink-radio/xtoc-core/xtoccore"

const taskVersion1 = 1

const (
	taskFlagLoc = 1 << iota
	taskFlagNote
	taskFlagSrcIDs
)

// TaskNoteCap is the maximum byte length of a TASK note.
const TaskNoteCap = 120

// Task assigns an action to a unit, with an optional due time.
type Task struct {
	Src         uint16
	Dst         uint16
	Priority    uint8
	AtMs        int64
	ActionCode  uint8
	DueMinutes  uint16 // minutes-from-AtMs, 0 means no due time carried
	Loc         *Location
	Note        string
	SrcIDs      []uint16
}

func (t *Task) TemplateID() ID { return TASK }

func (t *Task) Encode() ([]byte, error) {
	w := xtoccore.NewWriter(32)
	w.WriteU8(taskVersion1)
	w.WriteU16(t.Src)
	w.WriteU16(t.Dst)
	w.WriteU8(t.Priority)
	w.WriteUnixMinutes(t.AtMs)
	w.WriteU8(t.ActionCode)
	w.WriteU16(t.DueMinutes)

	var flags byte
	if t.Loc != nil {
		flags |= taskFlagLoc
	}
	if t.Note != "" {
		flags |= taskFlagNote
	}
	extra := extraOf(t.SrcIDs, t.Src)
	if len(extra) > 0 {
		flags |= taskFlagSrcIDs
	}
	w.WriteU8(flags)

	if t.Loc != nil {
		w.WriteCoord(t.Loc.Lat)
		w.WriteCoord(t.Loc.Lon)
	}
	if t.Note != "" {
		w.WriteString8(t.Note, TaskNoteCap)
	}
	if len(extra) > 0 {
		writeExtraSrcIDs(w, extra)
	}
	return w.Bytes(), nil
}

func DecodeTask(data []byte) (*Task, error) {
	r := xtoccore.NewReader(data)
	ver, err := r.ReadU8()
	if err != nil {
		return nil, wrapTruncated(TASK, "version")
	}
	if ver != taskVersion1 {
		return nil, wrapUnsupportedVersion(TASK, ver)
	}
	t := &Task{}
	if t.Src, err = r.ReadU16(); err != nil {
		return nil, asTruncated(err, TASK, "src")
	}
	if t.Dst, err = r.ReadU16(); err != nil {
		return nil, asTruncated(err, TASK, "dst")
	}
	if t.Priority, err = r.ReadU8(); err != nil {
		return nil, asTruncated(err, TASK, "priority")
	}
	if t.AtMs, err = r.ReadUnixMinutes(); err != nil {
		return nil, asTruncated(err, TASK, "t")
	}
	if t.ActionCode, err = r.ReadU8(); err != nil {
		return nil, asTruncated(err, TASK, "actionCode")
	}
	if t.DueMinutes, err = r.ReadU16(); err != nil {
		return nil, asTruncated(err, TASK, "dueMinutes")
	}
	flags, err := r.ReadU8()
	if err != nil {
		return nil, asTruncated(err, TASK, "flags")
	}

	if hasBit(flags, taskFlagLoc) {
		loc, err := readLocation(r, TASK)
		if err != nil {
			return nil, err
		}
		t.Loc = loc
	}
	if hasBit(flags, taskFlagNote) {
		if t.Note, err = r.ReadString8(); err != nil {
			return nil, asTruncated(err, TASK, "note")
		}
	}
	var extra []uint16
	if hasBit(flags, taskFlagSrcIDs) {
		if extra, err = readExtraSrcIDs(r, TASK); err != nil {
			return nil, err
		}
	}
	t.SrcIDs = dedupSrcIDs(t.Src, extra)
	return t, nil
}
