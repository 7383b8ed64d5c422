package task

import "encoding/json"

// Task is a message published to a stream named after its TaskType.
type Task interface {
	TaskType() string
	TaskValue() ([]byte, error)
}

func DefaultTaskValue(task any) ([]byte, error) {
	return json.Marshal(task)
}

// UnmarshalTask decodes the task_data field of a stream message. It is the
// reading side of DefaultTaskValue for consumers of the snapshot stream.
func UnmarshalTask[T Task](data []byte) (T, error) {
	var t T
	err := json.Unmarshal(data, &t)
	return t, err
}

func StreamName(prefix string, t Task) string {
	return prefix + t.TaskType()
}
