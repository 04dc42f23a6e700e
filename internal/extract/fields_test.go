package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const completionCertText = `CERTIFICATE OF COMPLETION

This is to certify that

SAKSHAM SHARMA

has successfully completed the course

B.Tech Computer Engineering

from

DevLabs Institute

in the year 2023

Registration Number: ABC2023001

Date of Issue: December 2023`

const graduationCertText = `GRADUATION CERTIFICATE

This certifies that

PRISHA VERMA

has completed

M.Tech AI

from

Global Tech University

Year: 2022

Registration: ABC2022007`

const gradeCardText = `VISVESVARAYA TECHNOLOGICAL UNIVERSITY
GRADE CARD

USN: 1BG19CS100
Name of the Student: VIKRAM VERMA
Father's Name : RAJESH VERMA
Name of the College: BNM INSTITUTE OF TECHNOLOGY`

func TestFieldsCompletionCertificate(t *testing.T) {
	fields := Fields(completionCertText)

	assert.Equal(t, "SAKSHAM SHARMA", fields.Name)
	assert.Equal(t, "DevLabs Institute", fields.Institution)
	assert.Equal(t, "B.Tech Computer Engineering", fields.Degree)
	assert.Equal(t, 2023, fields.Year)
	assert.Empty(t, fields.GuardianName)
}

func TestFieldsGraduationCertificate(t *testing.T) {
	fields := Fields(graduationCertText)

	assert.Equal(t, "PRISHA VERMA", fields.Name)
	assert.Equal(t, "Global Tech University", fields.Institution)
	assert.Equal(t, "M.Tech AI", fields.Degree)
	assert.Equal(t, 2022, fields.Year)
}

func TestFieldsGradeCard(t *testing.T) {
	fields := Fields(gradeCardText)

	assert.Equal(t, "VIKRAM VERMA", fields.Name)
	assert.Equal(t, "RAJESH VERMA", fields.GuardianName)
	assert.Equal(t, "BNM INSTITUTE OF TECHNOLOGY", fields.Institution)
	// Grade cards carry no degree or printed year; those stay zero-valued.
	assert.Empty(t, fields.Degree)
	assert.Equal(t, 0, fields.Year)
}

func TestFieldsUppercaseNameFallback(t *testing.T) {
	// No certifying phrase and no name label: fall back to the first
	// uppercase line that is not a document heading.
	text := `CERTIFICATE OF COMPLETION

JOHN DOE

DevLabs Institute`

	fields := Fields(text)
	assert.Equal(t, "JOHN DOE", fields.Name)
	assert.Equal(t, "DevLabs Institute", fields.Institution)
}

func TestFieldsAbsentName(t *testing.T) {
	text := `Course Completion Record

has completed

Data Engineering

from

Global Tech University

Year: 2021`

	fields := Fields(text)
	assert.Empty(t, fields.Name)
	assert.Equal(t, "Data Engineering", fields.Degree)
	assert.Equal(t, "Global Tech University", fields.Institution)
	assert.Equal(t, 2021, fields.Year)
}

func TestFieldsEmptyText(t *testing.T) {
	fields := Fields("")
	assert.Empty(t, fields.Name)
	assert.Empty(t, fields.Institution)
	assert.Empty(t, fields.Degree)
	assert.Equal(t, 0, fields.Year)

	fields = Fields("   \n  ")
	assert.Empty(t, fields.Name)
}

func TestFieldsBareYearFallback(t *testing.T) {
	fields := Fields("Completed studies. Issued 2019.")
	assert.Equal(t, 2019, fields.Year)
}
