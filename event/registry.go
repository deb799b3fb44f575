package event

import (
	"fmt"
	"strings"
)

var (
	typeToName = map[Type]string{
		CollisionStart:    "collision_start",
		CollisionContinue: "collision_continue",
		CollisionEnd:      "collision_end",
		AreaEnter:         "area_enter",
		AreaExit:          "area_exit",
	}
	nameToType = make(map[string]Type, len(typeToName))
)

func init() {
	for t, name := range typeToName {
		nameToType[name] = t
	}
}

// String returns the snake_case name used in traces and scene filters
func (t Type) String() string {
	if name, ok := typeToName[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType returns the Type for a name, case insensitive
func ParseType(name string) (Type, error) {
	if t, ok := nameToType[strings.ToLower(name)]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("event: unknown type %q", name)
}

// MarshalText implements encoding.TextMarshaler for CSV and YAML output
func (t Type) MarshalText() ([]byte, error) {
	if _, ok := typeToName[t]; !ok {
		return nil, fmt.Errorf("event: unknown type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(text []byte) error {
	v, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// IsCollision reports whether t belongs to the body contact family
func (t Type) IsCollision() bool {
	return t >= CollisionStart && t <= CollisionEnd
}
