package must

import (
	"os"

	"gopkg.in/yaml.v3"
)

// PanicIf will call panic(err) in case given err is not nil.
func PanicIf(err error) {
	if err != nil {
		panic(err)
	}
}

func WriteFile(name string, buf []byte, perm os.FileMode) {
	PanicIf(os.WriteFile(name, buf, perm))
}

func UnmarshalYaml(data []byte, v interface{}) {
	PanicIf(yaml.Unmarshal(data, v))
}

func MarshalYaml(v interface{}) []byte {
	data, err := yaml.Marshal(v)
	PanicIf(err)
	return data
}
