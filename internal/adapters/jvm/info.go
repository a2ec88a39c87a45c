package jvm

import "go.trai.ch/anvil/internal/core/domain"

// ReadInfo decodes the inheritance header of a class file.
func ReadInfo(data []byte) (domain.ClassInfo, error) {
	cf, err := Decode(data)
	if err != nil {
		return domain.ClassInfo{}, err
	}
	return cf.Info(), nil
}

// Info returns the inheritance header of the class.
func (cf *ClassFile) Info() domain.ClassInfo {
	return domain.ClassInfo{
		Name:       domain.NewInternedString(cf.Name()),
		Super:      domain.NewInternedString(cf.SuperName()),
		Interfaces: domain.NewInternedStrings(cf.InterfaceNames()),
	}
}
